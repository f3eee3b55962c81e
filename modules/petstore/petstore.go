// Package petstore is a reference handler module backed by an in-memory
// store. It exists to demonstrate how handler modules plug into the
// dispatcher, and serves the bundled petstore document.
package petstore

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/specgate/specgate/app"
	"github.com/specgate/specgate/core/registry"
)

// ModuleName is the conventional name the bundled document resolves to.
const ModuleName = "pets_controller"

// Pet is one stored pet.
type Pet struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Tag  string `json:"tag,omitempty"`
}

// Store is an in-memory pet collection safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	pets   map[int]Pet
	nextID int
}

// New creates an empty store.
func New() *Store {
	return &Store{pets: make(map[int]Pet), nextID: 1}
}

// Module builds the handler module over this store. The admin group is
// nested so its operations resolve under dotted identifiers.
func (s *Store) Module() *registry.Module {
	m := registry.NewModule()
	m.Handle("list_pets", s.listPets)
	m.Handle("create_pet", s.createPet)
	m.Handle("get_pet", s.getPet)
	m.Handle("delete_pet", s.deletePet)
	m.Handle("admin.reset", s.reset)
	m.Handle("admin.stats", s.stats)
	return m
}

// Register installs the module in a registry under ModuleName.
func Register(r *registry.Registry) (*Store, error) {
	s := New()
	if err := r.Register(ModuleName, s.Module()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) listPets(w http.ResponseWriter, r *http.Request, next registry.Next) {
	s.mu.Lock()
	pets := make([]Pet, 0, len(s.pets))
	for _, p := range s.pets {
		pets = append(pets, p)
	}
	s.mu.Unlock()
	sort.Slice(pets, func(i, j int) bool { return pets[i].ID < pets[j].ID })

	writeJSON(w, http.StatusOK, pets)
	next(nil)
}

func (s *Store) createPet(w http.ResponseWriter, r *http.Request, next registry.Next) {
	var in struct {
		Name string `json:"name"`
		Tag  string `json:"tag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "name is required"})
		next(nil)
		return
	}

	s.mu.Lock()
	p := Pet{ID: s.nextID, Name: in.Name, Tag: in.Tag}
	s.pets[p.ID] = p
	s.nextID++
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, p)
	next(nil)
}

func (s *Store) getPet(w http.ResponseWriter, r *http.Request, next registry.Next) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "id must be an integer"})
		next(nil)
		return
	}

	s.mu.Lock()
	p, found := s.pets[id]
	s.mu.Unlock()

	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "pet not found"})
		next(nil)
		return
	}
	writeJSON(w, http.StatusOK, p)
	next(nil)
}

func (s *Store) deletePet(w http.ResponseWriter, r *http.Request, next registry.Next) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "id must be an integer"})
		next(nil)
		return
	}

	s.mu.Lock()
	_, found := s.pets[id]
	delete(s.pets, id)
	s.mu.Unlock()

	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "pet not found"})
		next(nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	next(nil)
}

func (s *Store) reset(w http.ResponseWriter, r *http.Request, next registry.Next) {
	s.mu.Lock()
	s.pets = make(map[int]Pet)
	s.nextID = 1
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
	next(nil)
}

func (s *Store) stats(w http.ResponseWriter, r *http.Request, next registry.Next) {
	s.mu.Lock()
	count := len(s.pets)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]int{"count": count})
	next(nil)
}

func pathID(r *http.Request) (int, bool) {
	rt, ok := app.RouteFrom(r.Context())
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(rt.Match.Params["id"])
	if err != nil {
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
