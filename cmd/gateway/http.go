package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/tidwall/sjson"
	"goa.design/clue/log"

	"github.com/saidsurucu/yargi-mcp-sub000/internal/toolregistry"
)

// dispatchRequest is the wire shape of a POST /dispatch call: the tool name
// the host runtime resolved plus its raw, not-yet-validated arguments.
type dispatchRequest struct {
	ToolName string          `json:"tool_name"`
	Args     json.RawMessage `json:"args"`
}

// toolSummary is the discovery-facing projection of a Descriptor; internal
// schema validation details stay behind Validate and are not re-exposed here
// beyond what a caller needs to build a request.
type toolSummary struct {
	Name        string `json:"name"`
	Source      string `json:"source"`
	Subtype     string `json:"subtype,omitempty"`
	Capability  string `json:"capability"`
	Description string `json:"description"`
	Idempotent  bool   `json:"idempotent"`
	ReadOnly    bool   `json:"read_only"`
	OpenWorld   bool   `json:"open_world"`
}

func handleHTTPServer(ctx context.Context, addr string, registry *toolregistry.Registry, wg *sync.WaitGroup, errc chan error) {
	mux := http.NewServeMux()

	mux.HandleFunc("/tools", func(w http.ResponseWriter, r *http.Request) {
		descriptors := registry.Descriptors()
		summaries := make([]toolSummary, 0, len(descriptors))
		for _, d := range descriptors {
			summaries = append(summaries, toolSummary{
				Name:        d.Name,
				Source:      d.Source,
				Subtype:     d.Subtype,
				Capability:  string(d.Capability),
				Description: d.Annotations.Description,
				Idempotent:  d.Annotations.Idempotent,
				ReadOnly:    d.Annotations.ReadOnly,
				OpenWorld:   d.Annotations.OpenWorld,
			})
		}
		writeJSON(w, http.StatusOK, summaries)
	})

	mux.HandleFunc("/dispatch", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req dispatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}
		envelope := registry.Dispatch(r.Context(), req.ToolName, req.Args)
		writeJSON(w, http.StatusOK, envelope)
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		envelope := registry.Dispatch(r.Context(), "health", nil)
		writeJSON(w, http.StatusOK, envelope)
	})

	var handler http.Handler = mux
	handler = log.HTTP(ctx)(handler)

	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 60 * time.Second}

	wg.Add(1)
	go func() {
		defer wg.Done()

		go func() {
			log.Printf(ctx, "HTTP server listening on %q", addr)
			errc <- srv.ListenAndServe()
		}()

		<-ctx.Done()
		log.Printf(ctx, "shutting down HTTP server at %q", addr)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf(ctx, "failed to shutdown HTTP server: %v", err)
		}
	}()
}

// writeJSON marshals v, then patches a served_at timestamp directly into the
// encoded document with sjson rather than adding the field to every response
// struct — callers outside HTTP (the registry's own internal dispatch path)
// never see it. Only JSON objects are patched; a top-level array (the /tools
// listing) is written without served_at.
func writeJSON(w http.ResponseWriter, status int, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	if patched, err := sjson.SetBytes(raw, "served_at", time.Now().UTC().Format(time.RFC3339)); err == nil {
		raw = patched
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(raw)
}
