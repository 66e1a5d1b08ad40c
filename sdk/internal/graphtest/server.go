// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

// Package graphtest is an in-memory stand-in for the drive endpoints used by the SDK.
package graphtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

const (
	RootID       = "root"
	apiPrefix    = "/v1.0/me/drive/"
	uploadPrefix = "/upload/"
	directLimit  = 4 * 1024 * 1024
)

type node struct {
	id       string
	name     string
	parentID string
	folder   bool
	data     []byte
}

// Call is one request seen by the server.
type Call struct {
	Method     string
	Path       string
	Authorized bool
	Header     http.Header
}

// Session is an upload session and the chunks it received.
type Session struct {
	ID        string
	ParentID  string
	Name      string
	Total     int64
	Data      []byte
	Ranges    []string
	Cancelled bool
	Finalized bool
}

type Server struct {
	*httptest.Server

	Token string

	mu       sync.Mutex
	items    map[string]*node
	nextID   int
	sessions map[string]*Session
	calls    []Call

	// ConflictOnCreate lists folder names whose create call behaves as if another
	// client created the folder first: the folder appears and the call returns 409.
	ConflictOnCreate map[string]bool
	// CreateStatus forces the status returned when creating the named folder.
	CreateStatus map[string]int
	// LookupStatus forces the status returned when looking up the given path.
	LookupStatus map[string]int
	// ChunkStatus, when set and returning non-zero, overrides the status of chunk index.
	// 200/201 finalize the session with the bytes received so far.
	ChunkStatus func(index int) int
	// OmitUploadURL makes createUploadSession answer without an uploadUrl.
	OmitUploadURL bool
	// SessionStatus forces the status of createUploadSession.
	SessionStatus int
	// ContentStatus forces the status of a direct upload of the named file.
	ContentStatus map[string]int
}

func NewServer(token string) *Server {
	s := &Server{
		Token:            token,
		items:            map[string]*node{RootID: {id: RootID, name: "root", folder: true}},
		sessions:         map[string]*Session{},
		ConflictOnCreate: map[string]bool{},
		CreateStatus:     map[string]int{},
		LookupStatus:     map[string]int{},
		ContentStatus:    map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// BaseURL is the API root to configure the SDK with.
func (s *Server) BaseURL() string {
	return s.URL + "/v1.0"
}

// AddFolder creates a folder directly, returning its id.
func (s *Server) AddFolder(parentID, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addNode(parentID, name, true, nil).id
}

// AddFile creates a file directly, returning its id.
func (s *Server) AddFile(parentID, name string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addNode(parentID, name, false, data).id
}

// File returns the content of name inside parentID.
func (s *Server) File(parentID, name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.child(parentID, name)
	if n == nil || n.folder {
		return nil, false
	}
	return append([]byte(nil), n.data...), true
}

// PathID returns the id at a slash-separated path.
func (s *Server) PathID(path string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.walk(path)
	if n == nil {
		return "", false
	}
	return n.id, true
}

func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Count returns how many calls matched method and contained fragment in their path.
func (s *Server) Count(method, fragment string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method && strings.Contains(c.Path, fragment) {
			n++
		}
	}
	return n
}

func (s *Server) Lookups() int { return s.Count(http.MethodGet, "/root:/") }
func (s *Server) Creates() int { return s.Count(http.MethodPost, "/children") }

func (s *Server) Sessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Session, 0, len(s.sessions))
	for i := 1; i <= len(s.sessions); i++ {
		if sess, ok := s.sessions["S"+strconv.Itoa(i)]; ok {
			cp := *sess
			cp.Ranges = append([]string(nil), sess.Ranges...)
			out = append(out, &cp)
		}
	}
	return out
}

func (s *Server) addNode(parentID, name string, folder bool, data []byte) *node {
	if existing := s.child(parentID, name); existing != nil {
		existing.folder = folder
		existing.data = data
		return existing
	}
	s.nextID++
	n := &node{
		id:       fmt.Sprintf("ITEM%04d", s.nextID),
		name:     name,
		parentID: parentID,
		folder:   folder,
		data:     data,
	}
	s.items[n.id] = n
	return n
}

func (s *Server) child(parentID, name string) *node {
	for _, n := range s.items {
		if n.parentID == parentID && n.name == name && n.id != RootID {
			return n
		}
	}
	return nil
}

func (s *Server) walk(path string) *node {
	current := s.items[RootID]
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg == "" {
			continue
		}
		current = s.child(current.id, seg)
		if current == nil {
			return nil
		}
	}
	return current
}

func (s *Server) itemJSON(n *node) map[string]any {
	m := map[string]any{"id": n.id, "name": n.name}
	if n.folder {
		children := 0
		for _, c := range s.items {
			if c.parentID == n.id {
				children++
			}
		}
		m["folder"] = map[string]any{"childCount": children}
	} else {
		m["size"] = len(n.data)
		m["file"] = map[string]any{"mimeType": "application/octet-stream"}
	}
	return m
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]any{"error": map[string]any{"code": code, "message": code}})
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	defer s.mu.Unlock()

	authorized := s.Token != "" && r.Header.Get("Authorization") == "Bearer "+s.Token
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, Authorized: authorized, Header: r.Header.Clone()})

	switch {
	case strings.HasPrefix(r.URL.Path, uploadPrefix):
		s.serveUpload(w, r, strings.TrimPrefix(r.URL.Path, uploadPrefix), body)
	case strings.HasPrefix(r.URL.Path, apiPrefix):
		if !authorized {
			writeError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}
		s.serveAPI(w, r, strings.TrimPrefix(r.URL.Path, apiPrefix), body)
	default:
		writeError(w, http.StatusNotFound, "invalidRequest")
	}
}

func (s *Server) serveAPI(w http.ResponseWriter, r *http.Request, rest string, body []byte) {
	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(rest, "root:/"):
		path := strings.TrimPrefix(rest, "root:/")
		if status := s.LookupStatus[path]; status != 0 {
			writeError(w, status, "forced")
			return
		}
		n := s.walk(path)
		if n == nil {
			writeError(w, http.StatusNotFound, "itemNotFound")
			return
		}
		writeJSON(w, http.StatusOK, s.itemJSON(n))

	case r.Method == http.MethodPost && strings.HasPrefix(rest, "items/") && strings.HasSuffix(rest, "/children"):
		parentID := strings.TrimSuffix(strings.TrimPrefix(rest, "items/"), "/children")
		s.createFolder(w, parentID, body)

	case r.Method == http.MethodPost && strings.HasPrefix(rest, "items/") && strings.HasSuffix(rest, "/createLink"):
		id := strings.TrimSuffix(strings.TrimPrefix(rest, "items/"), "/createLink")
		if _, ok := s.items[id]; !ok {
			writeError(w, http.StatusNotFound, "itemNotFound")
			return
		}
		var req struct{ Type, Scope string }
		_ = json.Unmarshal(body, &req)
		writeJSON(w, http.StatusCreated, map[string]any{
			"id": "perm-" + id,
			"link": map[string]any{
				"type":   req.Type,
				"scope":  req.Scope,
				"webUrl": "https://share.example.test/s/" + id,
			},
		})

	case strings.HasPrefix(rest, "items/") && strings.Count(rest, ":/") == 2:
		parts := strings.SplitN(strings.TrimPrefix(rest, "items/"), ":/", 3)
		parentID, name, action := parts[0], parts[1], parts[2]
		if p, ok := s.items[parentID]; !ok || !p.folder {
			writeError(w, http.StatusNotFound, "itemNotFound")
			return
		}
		switch {
		case r.Method == http.MethodPut && action == "content":
			if status := s.ContentStatus[name]; status != 0 {
				writeError(w, status, "forced")
				return
			}
			if len(body) > directLimit {
				writeError(w, http.StatusRequestEntityTooLarge, "requestTooLarge")
				return
			}
			status := http.StatusCreated
			if s.child(parentID, name) != nil {
				status = http.StatusOK
			}
			n := s.addNode(parentID, name, false, body)
			writeJSON(w, status, s.itemJSON(n))
		case r.Method == http.MethodPost && action == "createUploadSession":
			s.createSession(w, r, parentID, name)
		default:
			writeError(w, http.StatusBadRequest, "invalidRequest")
		}

	default:
		writeError(w, http.StatusBadRequest, "invalidRequest")
	}
}

func (s *Server) createFolder(w http.ResponseWriter, parentID string, body []byte) {
	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalidRequest")
		return
	}
	name, _ := req["name"].(string)
	if _, ok := req["folder"]; !ok || name == "" {
		writeError(w, http.StatusBadRequest, "invalidRequest")
		return
	}
	if p, ok := s.items[parentID]; !ok || !p.folder {
		writeError(w, http.StatusNotFound, "itemNotFound")
		return
	}
	if status := s.CreateStatus[name]; status != 0 {
		writeError(w, status, "forced")
		return
	}
	if s.ConflictOnCreate[name] {
		if s.child(parentID, name) == nil {
			s.addNode(parentID, name, true, nil)
		}
		writeError(w, http.StatusConflict, "nameAlreadyExists")
		return
	}
	n := s.addNode(parentID, name, true, nil)
	writeJSON(w, http.StatusCreated, s.itemJSON(n))
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request, parentID, name string) {
	if s.SessionStatus != 0 {
		writeError(w, s.SessionStatus, "forced")
		return
	}
	id := "S" + strconv.Itoa(len(s.sessions)+1)
	s.sessions[id] = &Session{ID: id, ParentID: parentID, Name: name, Total: -1}
	if s.OmitUploadURL {
		writeJSON(w, http.StatusOK, map[string]any{"expirationDateTime": "2030-01-01T00:00:00Z"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"uploadUrl":          s.URL + uploadPrefix + id + "?tempauth=secret",
		"expirationDateTime": "2030-01-01T00:00:00Z",
	})
}

func (s *Server) serveUpload(w http.ResponseWriter, r *http.Request, id string, body []byte) {
	sess, ok := s.sessions[id]
	if !ok || sess.Cancelled || sess.Finalized {
		writeError(w, http.StatusNotFound, "itemNotFound")
		return
	}

	if r.Method == http.MethodDelete {
		sess.Cancelled = true
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "invalidRequest")
		return
	}

	var start, end, total int64
	if _, err := fmt.Sscanf(r.Header.Get("Content-Range"), "bytes %d-%d/%d", &start, &end, &total); err != nil {
		writeError(w, http.StatusBadRequest, "invalidRange")
		return
	}
	if sess.Total >= 0 && total != sess.Total {
		writeError(w, http.StatusBadRequest, "invalidRange")
		return
	}
	if start != int64(len(sess.Data)) || end < start || end >= total {
		writeError(w, http.StatusRequestedRangeNotSatisfiable, "invalidRange")
		return
	}
	if int64(len(body)) != end-start+1 || r.ContentLength != int64(len(body)) {
		writeError(w, http.StatusBadRequest, "invalidContentLength")
		return
	}

	sess.Total = total
	index := len(sess.Ranges)
	sess.Ranges = append(sess.Ranges, fmt.Sprintf("%d-%d", start, end))
	sess.Data = append(sess.Data, body...)

	status := 0
	if s.ChunkStatus != nil {
		status = s.ChunkStatus(index)
	}
	if status == 0 {
		status = http.StatusAccepted
		if int64(len(sess.Data)) == total {
			status = http.StatusCreated
		}
	}

	switch status {
	case http.StatusAccepted:
		writeJSON(w, status, map[string]any{
			"expirationDateTime": "2030-01-01T00:00:00Z",
			"nextExpectedRanges": []string{fmt.Sprintf("%d-", len(sess.Data))},
		})
	case http.StatusOK, http.StatusCreated:
		sess.Finalized = true
		n := s.addNode(sess.ParentID, sess.Name, false, append([]byte(nil), sess.Data...))
		writeJSON(w, status, s.itemJSON(n))
	default:
		writeError(w, status, "forced")
	}
}
