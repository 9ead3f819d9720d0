package qbo

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type staticTokens struct {
	token string
}

func (s staticTokens) AccessToken(ctx context.Context, realmID string) (string, error) {
	return s.token, nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientConfig{
		BaseURL: server.URL,
		Tokens:  staticTokens{token: "test-token"},
	})
}

func TestQuery(t *testing.T) {
	var gotPath, gotQuery, gotAuth, gotMinor string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		gotMinor = r.URL.Query().Get("minorversion")
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(QueryResult{
			QueryResponse: QueryResponse{Vendor: []Vendor{{ID: "7", DisplayName: "Acme"}}},
		})
	})

	result, err := client.Query(context.Background(), "realm-1", "SELECT Id FROM Vendor")
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}

	if gotPath != "/realm-1/query" {
		t.Errorf("path = %q, expected /realm-1/query", gotPath)
	}
	if gotQuery != "SELECT Id FROM Vendor" {
		t.Errorf("query param = %q", gotQuery)
	}
	if gotMinor != "65" {
		t.Errorf("minorversion = %q, expected 65", gotMinor)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if len(result.QueryResponse.Vendor) != 1 || result.QueryResponse.Vendor[0].ID != "7" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestCreateVendor(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, expected POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var body Vendor
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		body.ID = "42"
		_ = json.NewEncoder(w).Encode(map[string]Vendor{"Vendor": body})
	})

	vendor, err := client.CreateVendor(context.Background(), "realm-1", &Vendor{DisplayName: "Acme"})
	if err != nil {
		t.Fatalf("CreateVendor() error: %v", err)
	}
	if vendor.ID != "42" || vendor.DisplayName != "Acme" {
		t.Errorf("unexpected vendor: %+v", vendor)
	}
}

func TestAPIErrorParsesFault(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"Fault":{"type":"ValidationFault","Error":[{"code":"2040","Message":"Invalid Name","element":"DisplayName"}]}}`))
	})

	_, err := client.CreateVendor(context.Background(), "realm-1", &Vendor{DisplayName: "Bad:Name"})
	if err == nil {
		t.Fatal("expected an error")
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("error type = %T, expected *APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("Status = %d", apiErr.Status)
	}
	if apiErr.Fault == nil || len(apiErr.Fault.Errors) != 1 {
		t.Fatalf("Fault = %+v, expected one entry", apiErr.Fault)
	}
	if apiErr.Fault.Errors[0].Code != "2040" {
		t.Errorf("code = %q, expected 2040", apiErr.Fault.Errors[0].Code)
	}
}

func TestAPIErrorWithoutFaultKeepsBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("upstream down"))
	})

	_, err := client.Query(context.Background(), "realm-1", "SELECT Id FROM Vendor")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("error type = %T, expected *APIError", err)
	}
	if apiErr.Fault != nil {
		t.Errorf("Fault = %+v, expected nil", apiErr.Fault)
	}
	if apiErr.Body != "upstream down" {
		t.Errorf("Body = %q", apiErr.Body)
	}
}

func TestUploadMultipart(t *testing.T) {
	fileBytes := []byte("%PDF-1.4 receipt")

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/upload") {
			t.Errorf("path = %q, expected .../upload", r.URL.Path)
		}

		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			t.Fatalf("Content-Type = %q (%v)", r.Header.Get("Content-Type"), err)
		}

		reader := multipart.NewReader(r.Body, params["boundary"])
		parts := map[string]struct {
			contentType string
			data        []byte
		}{}
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("reading part: %v", err)
			}
			data, _ := io.ReadAll(part)
			parts[part.FormName()] = struct {
				contentType string
				data        []byte
			}{part.Header.Get("Content-Type"), data}
		}

		meta, ok := parts["file_metadata_01"]
		if !ok {
			t.Fatal("missing file_metadata_01 part")
		}
		if meta.contentType != "application/json" {
			t.Errorf("metadata content type = %q", meta.contentType)
		}
		var attachable Attachable
		if err := json.Unmarshal(meta.data, &attachable); err != nil {
			t.Fatalf("metadata not JSON: %v", err)
		}
		if len(attachable.AttachableRef) != 1 || attachable.AttachableRef[0].EntityRef.Value != "txn-9" {
			t.Errorf("metadata = %+v, expected txn-9 ref", attachable)
		}

		content, ok := parts["file_content_01"]
		if !ok {
			t.Fatal("missing file_content_01 part")
		}
		if content.contentType != "application/pdf" {
			t.Errorf("file content type = %q", content.contentType)
		}
		if string(content.data) != string(fileBytes) {
			t.Errorf("file bytes do not match")
		}

		_, _ = w.Write([]byte(`{"AttachableResponse":[{"Attachable":{"Id":"att-1","FileName":"receipt.pdf"}}]}`))
	})

	meta := &Attachable{
		AttachableRef: []AttachableRef{
			{EntityRef: EntityTypeRef{Type: "Purchase", Value: "txn-9"}},
		},
	}
	attachment, err := client.Upload(context.Background(), "realm-1", meta, fileBytes, "receipt.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if attachment.ID != "att-1" {
		t.Errorf("attachment id = %q, expected att-1", attachment.ID)
	}
}
