package jsonapi

// NewErrorDocument creates a document containing only errors.
func NewErrorDocument(errs ...Error) Document {
	return Document{
		Errors:  errs,
		JSONAPI: &JSONAPI{Version: Version},
	}
}

// NewCollectionDocument creates a document for a collection of resources
// with optional metadata.
func NewCollectionDocument(resources []Resource, meta Meta) Document {
	if resources == nil {
		resources = []Resource{}
	}
	return Document{
		Data:    resources,
		Meta:    meta,
		JSONAPI: &JSONAPI{Version: Version},
	}
}

// NewMetaDocument creates a document containing only metadata.
func NewMetaDocument(meta Meta) Document {
	return Document{
		Meta:    meta,
		JSONAPI: &JSONAPI{Version: Version},
	}
}
