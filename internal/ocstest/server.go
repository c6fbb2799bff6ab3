// Package ocstest provides an in-process fake of the OCS provisioning API
// for CLI and end-to-end tests.
package ocstest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Server is a minimal stateful fake of the provisioning endpoints the client
// uses: capabilities, user search/create, group search, group membership.
type Server struct {
	AdminUser string
	AdminPass string
	Version   string

	mu         sync.Mutex
	users      []string
	groups     []string
	members    map[string][]string
	createFail map[string]int

	srv *httptest.Server
}

func NewServer() *Server {
	s := &Server{
		AdminUser:  "admin",
		AdminPass:  "secret",
		Version:    "29.0.4",
		members:    map[string][]string{},
		createFail: map[string]int{},
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

func (s *Server) URL() string { return s.srv.URL }

func (s *Server) Close() { s.srv.Close() }

func (s *Server) AddUser(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, name)
}

func (s *Server) AddGroup(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = append(s.groups, name)
}

// FailCreate makes the next creations of name answer with the given OCS
// status code instead of succeeding.
func (s *Server) FailCreate(name string, statusCode int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createFail[name] = statusCode
}

func (s *Server) Users() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.users...)
}

func (s *Server) GroupMembers(group string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.members[group]...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != s.AdminUser || pass != s.AdminPass {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("unauthorized"))
		return
	}
	if r.Header.Get("OCS-APIREQUEST") != "true" {
		writeStatus(w, 998, "not an api request")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/ocs/v1.php/cloud/")

	switch {
	case path == "capabilities" && r.Method == http.MethodGet:
		s.handleCapabilities(w)
	case path == "users" && r.Method == http.MethodGet:
		s.handleSearchUsers(w, r)
	case path == "users" && r.Method == http.MethodPost:
		s.handleCreateUser(w, r)
	case path == "groups" && r.Method == http.MethodGet:
		s.handleSearchGroups(w, r)
	case strings.HasPrefix(path, "users/") && strings.HasSuffix(path, "/groups") && r.Method == http.MethodPost:
		username := strings.TrimSuffix(strings.TrimPrefix(path, "users/"), "/groups")
		s.handleAddToGroup(w, r, username)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *Server) handleCapabilities(w http.ResponseWriter) {
	body := fmt.Sprintf(`<?xml version="1.0"?>
<ocs>
 <meta><status>ok</status><statuscode>100</statuscode><message>OK</message></meta>
 <data>
  <version><string>%s</string><edition></edition></version>
  <capabilities>
   <core><pollinterval>60</pollinterval></core>
  </capabilities>
 </data>
</ocs>`, s.Version)
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := r.URL.Query().Get("search")
	var matches []string
	for _, user := range s.users {
		if strings.Contains(user, query) {
			matches = append(matches, user)
		}
	}

	writeList(w, "users", matches)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeStatus(w, 101, "invalid input data")
		return
	}

	name := r.PostForm.Get("userid")
	if name == "" || r.PostForm.Get("password") == "" {
		writeStatus(w, 101, "invalid input data")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if code, failed := s.createFail[name]; failed {
		writeStatus(w, code, "")
		return
	}
	for _, user := range s.users {
		if user == name {
			writeStatus(w, 102, "User already exists")
			return
		}
	}

	s.users = append(s.users, name)
	writeStatus(w, 100, "OK")
}

func (s *Server) handleSearchGroups(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := r.URL.Query().Get("search")
	var matches []string
	for _, group := range s.groups {
		if strings.Contains(group, query) {
			matches = append(matches, group)
		}
	}

	writeList(w, "groups", matches)
}

func (s *Server) handleAddToGroup(w http.ResponseWriter, r *http.Request, username string) {
	if err := r.ParseForm(); err != nil {
		writeStatus(w, 101, "invalid input data")
		return
	}
	group := r.PostForm.Get("groupid")

	s.mu.Lock()
	defer s.mu.Unlock()

	known := false
	for _, g := range s.groups {
		if g == group {
			known = true
			break
		}
	}
	if !known {
		writeStatus(w, 102, "group does not exist")
		return
	}

	s.members[group] = append(s.members[group], username)
	writeStatus(w, 100, "OK")
}

func writeStatus(w http.ResponseWriter, code int, message string) {
	body := fmt.Sprintf(`<?xml version="1.0"?>
<ocs>
 <meta><status>%s</status><statuscode>%d</statuscode><message>%s</message></meta>
 <data/>
</ocs>`, statusWord(code), code, message)
	_, _ = w.Write([]byte(body))
}

func writeList(w http.ResponseWriter, kind string, names []string) {
	var elements strings.Builder
	for _, name := range names {
		elements.WriteString("<element>" + name + "</element>")
	}
	body := fmt.Sprintf(`<?xml version="1.0"?>
<ocs>
 <meta><status>ok</status><statuscode>100</statuscode><message>OK</message></meta>
 <data><%s>%s</%s></data>
</ocs>`, kind, elements.String(), kind)
	_, _ = w.Write([]byte(body))
}

func statusWord(code int) string {
	if code == 100 {
		return "ok"
	}
	return "failure"
}
