package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"pdf-intake/internal/domain"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"
)

type failingSupabaseClient struct {
	err error
}

func (c *failingSupabaseClient) Initialize() error    { return c.err }
func (c *failingSupabaseClient) DB() *supabase.Client { return nil }
func (c *failingSupabaseClient) NewStorageClient() (*storage_go.Client, error) {
	if c.err != nil {
		return nil, c.err
	}
	return nil, errors.New("supabase storage not initialized")
}

// fakeStorageServer implements the parts of the Supabase Storage API the blob store calls.
type fakeStorageServer struct {
	mu           sync.Mutex
	buckets      []string
	objects      map[string][]byte
	listCalls    int
	contentTypes map[string][]string
	removeErr    bool
}

func newFakeStorageServer() *fakeStorageServer {
	return &fakeStorageServer{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string][]string),
	}
}

func (f *fakeStorageServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/storage/v1")
	switch {
	case path == "/bucket" && r.Method == http.MethodGet:
		f.record("list-buckets", r)
		out := make([]map[string]string, 0, len(f.buckets))
		for _, b := range f.buckets {
			out = append(out, map[string]string{"id": b, "name": b})
		}
		writeFakeJSON(w, http.StatusOK, out)

	case path == "/bucket" && r.Method == http.MethodPost:
		f.record("create-bucket", r)
		var body struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.buckets = append(f.buckets, body.Name)
		writeFakeJSON(w, http.StatusOK, map[string]string{"name": body.Name})

	case path == "/object/list/documents":
		f.record("list", r)
		f.listCalls++
		var body struct {
			Limit  int `json:"limit"`
			Offset int `json:"offset"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		names := f.sortedNames()
		if body.Offset < len(names) {
			names = names[body.Offset:]
		} else {
			names = nil
		}
		if len(names) > body.Limit {
			names = names[:body.Limit]
		}
		out := make([]map[string]string, 0, len(names))
		for _, n := range names {
			out = append(out, map[string]string{"name": n})
		}
		writeFakeJSON(w, http.StatusOK, out)

	case path == "/object/documents" && r.Method == http.MethodDelete:
		f.record("remove", r)
		if f.removeErr {
			writeFakeJSON(w, http.StatusForbidden, map[string]string{
				"statusCode": "403", "error": "Unauthorized", "message": "permission denied",
			})
			return
		}
		var body struct {
			Prefixes []string `json:"prefixes"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, p := range body.Prefixes {
			delete(f.objects, p)
		}
		writeFakeJSON(w, http.StatusOK, []map[string]string{})

	case strings.HasPrefix(path, "/object/documents/") && r.Method == http.MethodPost:
		f.record("upload", r)
		name := strings.TrimPrefix(path, "/object/documents/")
		data, _ := io.ReadAll(r.Body)
		f.objects[name] = data
		writeFakeJSON(w, http.StatusOK, map[string]string{"Key": "documents/" + name})

	case strings.HasPrefix(path, "/object/documents/") && r.Method == http.MethodGet:
		name := strings.TrimPrefix(path, "/object/documents/")
		data, ok := f.objects[name]
		if !ok {
			writeFakeJSON(w, http.StatusBadRequest, map[string]string{
				"statusCode": "404", "error": "not_found", "message": "Object not found",
			})
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(data)

	default:
		http.Error(w, "unexpected request "+r.Method+" "+r.URL.Path, http.StatusTeapot)
	}
}

func (f *fakeStorageServer) record(call string, r *http.Request) {
	f.contentTypes[call] = append(f.contentTypes[call], r.Header.Values("Content-Type")...)
}

func (f *fakeStorageServer) sortedNames() []string {
	names := make([]string, 0, len(f.objects))
	for n := range f.objects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func writeFakeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type fakeSupabaseClient struct {
	url    string
	client *supabase.Client
}

func (c *fakeSupabaseClient) Initialize() error    { return nil }
func (c *fakeSupabaseClient) DB() *supabase.Client { return c.client }
func (c *fakeSupabaseClient) NewStorageClient() (*storage_go.Client, error) {
	return storage_go.NewClient(c.url+"/storage/v1", "service-key", nil), nil
}

func newTestSupabaseStorage(t *testing.T, fake *fakeStorageServer) *SupabaseStorage {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := supabase.NewClient(srv.URL, "service-key", &supabase.ClientOptions{})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return NewStorageService(&fakeSupabaseClient{url: srv.URL, client: client}, "", &MockLogger{})
}

func TestNewStorageService(t *testing.T) {
	svc := NewStorageService(&failingSupabaseClient{}, "", &MockLogger{})
	if svc.container != domain.ContainerName {
		t.Fatalf("expected default container %q, got %q", domain.ContainerName, svc.container)
	}

	svc = NewStorageService(&failingSupabaseClient{}, "archive", &MockLogger{})
	if svc.container != "archive" {
		t.Fatalf("expected container to be set, got %s", svc.container)
	}
}

func TestSupabaseStorage_InitializeFailure(t *testing.T) {
	initErr := errors.New("supabase URL and key must be provided")
	svc := NewStorageService(&failingSupabaseClient{err: initErr}, "", &MockLogger{})

	if err := svc.EnsureContainer(context.Background()); !errors.Is(err, initErr) {
		t.Fatalf("expected init error, got %v", err)
	}
	if err := svc.Put(context.Background(), "a.pdf", strings.NewReader("x"), 1, "application/pdf"); !errors.Is(err, initErr) {
		t.Fatalf("expected init error, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "a.pdf"); !errors.Is(err, initErr) {
		t.Fatalf("expected init error, got %v", err)
	}
	if err := svc.Clear(context.Background()); !errors.Is(err, initErr) {
		t.Fatalf("expected init error, got %v", err)
	}
}

func TestSupabaseStorage_MissingClient(t *testing.T) {
	svc := NewStorageService(&failingSupabaseClient{}, "", &MockLogger{})
	if err := svc.Put(context.Background(), "a.pdf", nil, 0, "application/pdf"); err == nil {
		t.Fatalf("expected error when the client was never created")
	}
}

func TestSupabaseStorage_EnsureContainer(t *testing.T) {
	fake := newFakeStorageServer()
	svc := newTestSupabaseStorage(t, fake)

	for i := 0; i < 2; i++ {
		if err := svc.EnsureContainer(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.buckets) != 1 || fake.buckets[0] != domain.ContainerName {
		t.Fatalf("expected bucket to be created once, got %v", fake.buckets)
	}
}

func TestSupabaseStorage_PutAndGet(t *testing.T) {
	fake := newFakeStorageServer()
	svc := newTestSupabaseStorage(t, fake)
	ctx := context.Background()

	if err := svc.Put(ctx, "a.pdf", strings.NewReader("%PDF-a"), 6, "application/pdf"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fake.mu.Lock()
	uploadTypes := fake.contentTypes["upload"]
	fake.mu.Unlock()
	if len(uploadTypes) == 0 || uploadTypes[0] != "application/pdf" {
		t.Fatalf("expected upload content type application/pdf, got %v", uploadTypes)
	}

	obj, err := svc.Get(ctx, "a.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer obj.Body.Close()
	data, _ := io.ReadAll(obj.Body)
	if string(data) != "%PDF-a" || obj.Size != 6 || obj.Name != "a.pdf" {
		t.Fatalf("unexpected object: name=%q size=%d body=%q", obj.Name, obj.Size, data)
	}
}

func TestSupabaseStorage_GetNotFound(t *testing.T) {
	svc := newTestSupabaseStorage(t, newFakeStorageServer())

	if _, err := svc.Get(context.Background(), "missing.pdf"); !errors.Is(err, domain.ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestSupabaseStorage_ReservedCharactersInNames(t *testing.T) {
	fake := newFakeStorageServer()
	svc := newTestSupabaseStorage(t, fake)
	ctx := context.Background()

	names := []string{"100%.pdf", "report #2.pdf", "report #3.pdf", "what?.pdf"}
	for _, name := range names {
		if err := svc.Put(ctx, name, strings.NewReader("%PDF-"+name), 0, "application/pdf"); err != nil {
			t.Fatalf("Put(%q) failed: %v", name, err)
		}
	}

	fake.mu.Lock()
	stored := fake.sortedNames()
	fake.mu.Unlock()
	if got := stored; strings.Join(got, "|") != "100%.pdf|report #2.pdf|report #3.pdf|what?.pdf" {
		t.Fatalf("expected objects stored under their exact names, got %q", got)
	}

	for _, name := range names {
		obj, err := svc.Get(ctx, name)
		if err != nil {
			t.Fatalf("Get(%q) failed: %v", name, err)
		}
		data, _ := io.ReadAll(obj.Body)
		_ = obj.Body.Close()
		if string(data) != "%PDF-"+name {
			t.Fatalf("Get(%q) returned %q", name, data)
		}
	}
}

func TestSupabaseStorage_ConcurrentPutKeepsJSONHeaders(t *testing.T) {
	fake := newFakeStorageServer()
	svc := newTestSupabaseStorage(t, fake)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("doc-%02d.pdf", i)
			errs <- svc.Put(ctx, name, strings.NewReader("%PDF-"), 5, "application/pdf")
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := svc.EnsureContainer(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	for _, call := range []string{"create-bucket", "list", "remove"} {
		got := fake.contentTypes[call]
		if len(got) == 0 {
			t.Fatalf("expected %s request", call)
		}
		for _, ct := range got {
			if ct != "application/json" {
				t.Fatalf("expected %s content type application/json, got %v", call, got)
			}
		}
	}
}

func TestSupabaseStorage_ClearPages(t *testing.T) {
	fake := newFakeStorageServer()
	for i := 0; i < storageListPage+storageListPage/2; i++ {
		fake.objects[fmt.Sprintf("doc-%03d.pdf", i)] = []byte("%PDF-")
	}
	svc := newTestSupabaseStorage(t, fake)

	if err := svc.Clear(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.objects) != 0 {
		t.Fatalf("expected bucket to be empty, %d objects left", len(fake.objects))
	}
	if fake.listCalls != 2 {
		t.Fatalf("expected 2 listing pages, got %d", fake.listCalls)
	}
}

func TestSupabaseStorage_ClearRemoveFailure(t *testing.T) {
	fake := newFakeStorageServer()
	fake.objects["a.pdf"] = []byte("%PDF-")
	fake.removeErr = true
	svc := newTestSupabaseStorage(t, fake)

	err := svc.Clear(context.Background())
	if err == nil || !strings.Contains(err.Error(), "permission denied") {
		t.Fatalf("expected remove error, got %v", err)
	}
}

func TestIsStorageNotFound(t *testing.T) {
	cases := map[string]bool{
		"Object not found":             true,
		"response status code 404":     true,
		"The resource was Not Found":   true,
		"permission denied for bucket": false,
		"connection refused":           false,
	}
	for msg, want := range cases {
		if got := isStorageNotFound(errors.New(msg)); got != want {
			t.Errorf("isStorageNotFound(%q) = %v, want %v", msg, got, want)
		}
	}
}

func TestStorageErrorBody(t *testing.T) {
	if err := storageErrorBody([]byte("%PDF-1.4\n")); err != nil {
		t.Fatalf("expected PDF bytes to pass, got %v", err)
	}
	if err := storageErrorBody([]byte(`{"title":"not an error"}`)); err != nil {
		t.Fatalf("expected unrelated JSON to pass, got %v", err)
	}

	err := storageErrorBody([]byte(`{"statusCode":"404","error":"not_found","message":"Object not found"}`))
	if err == nil || !isStorageNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}

	err = storageErrorBody([]byte(`{"statusCode":"403","error":"Unauthorized","message":"invalid signature"}`))
	if err == nil || isStorageNotFound(err) {
		t.Fatalf("expected non-not-found error, got %v", err)
	}
}
