// Package main is the entry point for specgate.
//
//	@title			SpecGate - OpenAPI Dispatch Gateway
//	@version		1.0
//	@description	Routes HTTP requests to handler modules resolved from an OpenAPI document and audits responses against their declared contracts.
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
package main

func main() {
	Execute()
}
