package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sapuran-Berperan/fleet-portal/internal/model"
)

func newTestClient(t *testing.T, r http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, 5*time.Second)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNew_RejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://fleet", "fleet.local:8080"} {
		_, err := New(raw, time.Second)
		assert.Error(t, err, "url %q", raw)
	}
}

func TestListPage_SendsQueryAndToken(t *testing.T) {
	var gotQuery, gotAuth string
	r := chi.NewRouter()
	r.Get("/api/v1/boats", func(w http.ResponseWriter, req *http.Request) {
		gotQuery = req.URL.RawQuery
		gotAuth = req.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, `{"content":[{"id":21,"name":"Aurora"}],"totalPages":3,"totalElements":25}`)
	})
	c := newTestClient(t, r)

	page, err := ListPage[model.Boat](context.Background(), c, "tok", model.ResourceBoats, model.PageQuery{
		Page:    2,
		Size:    10,
		Filters: model.FilterState{"status": "AVAILABLE", "type": "all"},
	})
	require.NoError(t, err)

	assert.Equal(t, "page=2&size=10&status=AVAILABLE", gotQuery)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 25, page.TotalElements)
	require.Len(t, page.Content, 1)
	assert.Equal(t, int64(21), page.Content[0].ID)
}

func TestListPage_Envelope(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		wantErr       bool
		totalPages    int
		totalElements int
		items         int
	}{
		{name: "null content", body: `{"content":null,"totalPages":1,"totalElements":0}`, totalPages: 1},
		{name: "missing totals", body: `{"content":[]}`, totalPages: 1},
		{name: "missing totalPages", body: `{"content":[{"id":1}],"totalElements":25}`, totalPages: 3, totalElements: 25, items: 1},
		{name: "zero totalPages", body: `{"content":[],"totalPages":0,"totalElements":0}`, totalPages: 1},
		{name: "content not array", body: `{"content":{"id":1},"totalPages":1}`, wantErr: true},
		{name: "negative totalElements", body: `{"content":[],"totalElements":-3}`, wantErr: true},
		{name: "negative totalPages", body: `{"content":[],"totalPages":-1}`, wantErr: true},
		{name: "bare array", body: `[{"id":1}]`, wantErr: true},
		{name: "empty body", body: ``, wantErr: true},
		{name: "not json", body: `<html>oops</html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Get("/api/v1/payments", func(w http.ResponseWriter, req *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			})
			c := newTestClient(t, r)

			page, err := ListPage[model.Payment](context.Background(), c, "tok", model.ResourcePayments,
				model.PageQuery{Page: 0, Size: 10})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedResponse), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.totalPages, page.TotalPages)
			assert.Equal(t, tt.totalElements, page.TotalElements)
			assert.NotNil(t, page.Content)
			assert.Len(t, page.Content, tt.items)
		})
	}
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		status   int
		body     string
		sentinel error
		kind     Kind
		message  string
	}{
		{http.StatusUnauthorized, ``, ErrAuthExpired, KindAuthExpired, "Your session has expired. Please sign in again."},
		{http.StatusForbidden, ``, ErrAuthExpired, KindAuthExpired, "Your session has expired. Please sign in again."},
		{http.StatusInternalServerError, `{"message":"boom"}`, ErrServer, KindServer, "Server error. Please try again later."},
		{http.StatusServiceUnavailable, ``, ErrServer, KindServer, "Server error. Please try again later."},
		{http.StatusNotFound, ``, ErrClient, KindClient, "Error 404: Not Found"},
		{http.StatusBadRequest, `{"message":"month must be YYYY-MM"}`, ErrClient, KindClient, "Error 400: Bad Request - month must be YYYY-MM"},
		{http.StatusConflict, `{"meta":{"success":false,"message":"duplicate registration"}}`, ErrClient, KindClient, "Error 409: Conflict - duplicate registration"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			r := chi.NewRouter()
			r.Get("/api/v1/owners", func(w http.ResponseWriter, req *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			c := newTestClient(t, r)

			_, err := ListPage[model.Owner](context.Background(), c, "tok", model.ResourceOwners,
				model.PageQuery{Page: 0, Size: 10})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel))

			be := AsError(err)
			assert.Equal(t, tt.kind, be.Kind)
			assert.Equal(t, tt.status, be.Status)
			assert.Equal(t, tt.message, be.UserMessage())
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, time.Second)
	require.NoError(t, err)

	_, err = ListAll[model.Boat](context.Background(), c, "tok", model.ResourceBoats)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
	assert.Equal(t, http.StatusServiceUnavailable, AsError(err).HTTPStatus())
	assert.Equal(t, "Connection error. Please check your connection and try again.", AsError(err).UserMessage())
}

func TestAsError(t *testing.T) {
	assert.Nil(t, AsError(nil))
	assert.Equal(t, KindNetwork, AsError(context.DeadlineExceeded).Kind)
	assert.Equal(t, KindServer, AsError(errors.New("weird")).Kind)

	wrapped := &Error{Kind: KindClient, Status: 422}
	assert.Same(t, wrapped, AsError(wrapped))
	assert.Equal(t, 422, wrapped.HTTPStatus())
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "success", status: 200, body: `{"status":true,"jwt":"abc.def.ghi","role":"ROLE_ADMIN","id":7}`},
		{name: "status false", status: 200, body: `{"status":false,"jwt":"","role":"","id":null}`, wantErr: ErrInvalidCredentials},
		{name: "unauthorized", status: 401, body: ``, wantErr: ErrInvalidCredentials},
		{name: "server down", status: 500, body: ``, wantErr: ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got model.LoginRequest
			r := chi.NewRouter()
			r.Post("/api/v1/auth/login", func(w http.ResponseWriter, req *http.Request) {
				_ = json.NewDecoder(req.Body).Decode(&got)
				writeJSON(w, tt.status, tt.body)
			})
			c := newTestClient(t, r)

			resp, err := c.Login(context.Background(), model.LoginRequest{Username: "admin", Password: "secret"})
			assert.Equal(t, "admin", got.Username)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "abc.def.ghi", resp.JWT)
			assert.Equal(t, model.ID("7"), resp.ID)
		})
	}
}

func TestStatistics(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/maintenances/statistics", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, `{"total":12,"status.pending":4,"cost":1520.5}`)
	})
	c := newTestClient(t, r)

	counters, err := c.Statistics(context.Background(), "tok", model.ResourceMaintenances)
	require.NoError(t, err)
	assert.Equal(t, model.Counters{"total": 12, "status.pending": 4, "cost": 1520.5}, counters)
}

func TestListOwned(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/owners/{id}/boats", func(w http.ResponseWriter, req *http.Request) {
		if chi.URLParam(req, "id") != "42" {
			writeJSON(w, http.StatusNotFound, ``)
			return
		}
		writeJSON(w, http.StatusOK, `[{"id":1,"name":"Aurora"},{"id":2,"name":"Borealis"}]`)
	})
	r.Get("/api/v1/owners/{id}/payments", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, `null`)
	})
	c := newTestClient(t, r)

	boats, err := ListOwned[model.Boat](context.Background(), c, "tok", "42", model.ResourceBoats)
	require.NoError(t, err)
	assert.Len(t, boats, 2)

	payments, err := ListOwned[model.Payment](context.Background(), c, "tok", "42", model.ResourcePayments)
	require.NoError(t, err)
	assert.NotNil(t, payments)
	assert.Empty(t, payments)
}

func TestCreateUpdateDelete(t *testing.T) {
	var methods []string
	r := chi.NewRouter()
	r.Post("/api/v1/boats", func(w http.ResponseWriter, req *http.Request) {
		methods = append(methods, req.Method)
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		writeJSON(w, http.StatusCreated, `{"id":9,"name":"Aurora"}`)
	})
	r.Put("/api/v1/boats/{id}", func(w http.ResponseWriter, req *http.Request) {
		methods = append(methods, req.Method)
		w.WriteHeader(http.StatusNoContent)
	})
	r.Delete("/api/v1/boats/{id}", func(w http.ResponseWriter, req *http.Request) {
		methods = append(methods, req.Method+" "+chi.URLParam(req, "id"))
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(t, r)
	ctx := context.Background()

	created, err := Create[model.Boat](ctx, c, "tok", model.ResourceBoats, model.BoatRequest{Name: "Aurora"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), created.ID)

	_, err = Update[model.Boat](ctx, c, "tok", model.ResourceBoats, "9", model.BoatRequest{Name: "Aurora II"})
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, "tok", model.ResourceBoats, "9"))
	assert.Equal(t, []string{"POST", "PUT", "DELETE 9"}, methods)
}

func TestUploadReceipt(t *testing.T) {
	var filename, content string
	r := chi.NewRouter()
	r.Post("/api/v1/payments/{id}/receipt", func(w http.ResponseWriter, req *http.Request) {
		file, header, err := req.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, `{"message":"file missing"}`)
			return
		}
		defer file.Close()
		raw, _ := io.ReadAll(file)
		filename = header.Filename
		content = string(raw)
		w.WriteHeader(http.StatusOK)
	})
	c := newTestClient(t, r)

	err := c.UploadReceipt(context.Background(), "tok", "5", "../../receipt.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "receipt.pdf", filename)
	assert.Equal(t, "%PDF-1.4", content)
}

func TestDownloadReceipt(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/payments/{id}/download-receipt", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="may-mooring.pdf"`)
		_, _ = io.WriteString(w, "%PDF")
	})
	r.Get("/api/v1/payments/404/download-receipt", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"message":"no receipt"}`)
	})
	c := newTestClient(t, r)

	dl, err := c.DownloadReceipt(context.Background(), "tok", "5")
	require.NoError(t, err)
	defer dl.Body.Close()
	body, _ := io.ReadAll(dl.Body)
	assert.Equal(t, "may-mooring.pdf", dl.Filename)
	assert.Equal(t, "application/pdf", dl.ContentType)
	assert.Equal(t, "%PDF", string(body))

	_, err = c.DownloadReceipt(context.Background(), "tok", "404")
	assert.True(t, errors.Is(err, ErrClient))
}

func TestFilenameFromDisposition(t *testing.T) {
	tests := []struct {
		header   string
		expected string
	}{
		{`attachment; filename="receipt.pdf"`, "receipt.pdf"},
		{`attachment; filename=receipt.png`, "receipt.png"},
		{`attachment; filename="../../etc/passwd"`, "passwd"},
		{`attachment; filename="C:\\docs\\scan.jpg"`, "scan.jpg"},
		{`attachment`, "fallback.bin"},
		{``, "fallback.bin"},
		{`;;;`, "fallback.bin"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FilenameFromDisposition(tt.header, "fallback.bin"), "header %q", tt.header)
	}
}
