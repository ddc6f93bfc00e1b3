package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"CityVision/servidor/internal/metrics"
	"CityVision/shared/cityobject"
	"CityVision/shared/picking"
	"CityVision/shared/tiledoc"
	"CityVision/shared/tilestore"
	"CityVision/shared/util"

	"github.com/go-gl/mathgl/mgl32"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const rateLimitExceededJSON = `{"error":"rate limit","retry_after":%d}`

// cityObjectResponse é a forma JSON de um CityObject.
type cityObjectResponse struct {
	Identity   cityobject.Identity `json:"id"`
	Layer      string              `json:"layer"`
	MeshID     int                 `json:"meshId"`
	IndexStart int                 `json:"indexStart"`
	IndexCount int                 `json:"indexCount"`
	IndexEnd   int                 `json:"indexEnd"`
	Centroid   *[3]float32         `json:"centroid,omitempty"`
	Degenerate bool                `json:"degenerate"`
	StyleID    string              `json:"styleId"`
	Props      map[string]any      `json:"props"`
}

func newCityObjectResponse(layer string, co *cityobject.CityObject) cityObjectResponse {
	resp := cityObjectResponse{
		Identity:   co.Identity(),
		Layer:      layer,
		MeshID:     co.MeshID,
		IndexStart: co.IndexStart,
		IndexCount: co.IndexCount,
		IndexEnd:   co.IndexEnd(),
		Degenerate: co.Degenerate(),
		StyleID:    co.DefaultStyleID(),
		Props:      co.Props,
	}
	if util.IsFinite(co.Centroid) {
		c := [3]float32(co.Centroid)
		resp.Centroid = &c
	}
	return resp
}

type pickRequest struct {
	Origin    [3]float32 `json:"origin"`
	Direction [3]float32 `json:"direction"`
	Layers    []string   `json:"layers"`
}

type pickResponse struct {
	Hit      bool                `json:"hit"`
	Distance float32             `json:"distance,omitempty"`
	Point    *[3]float32         `json:"point,omitempty"`
	Object   *cityObjectResponse `json:"object,omitempty"`
}

// API expõe os city objects por HTTP.
type API struct {
	tiles *TileService
	store *tilestore.TileStore
	cache AttributeCache

	// hub recebe os avisos de mudança no dataset (pode ser nil)
	hub *Hub
}

// Routes registra os endpoints no mux. As rotas /api passam pelo rate limit.
func (a *API) Routes(mux *http.ServeMux, rateLimit string) error {
	limit, err := RateLimitMiddleware(rateLimit)
	if err != nil {
		return err
	}
	mux.Handle("/api/cityobject", limit(a.instrument("cityobject", a.handleCityObject)))
	mux.Handle("/api/pick", limit(a.instrument("pick", a.handlePick)))
	mux.Handle("/api/tiles", limit(a.instrument("tiles", a.handleTiles)))
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "tiles": len(a.store.CachedIDs())})
	})
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (a *API) instrument(endpoint string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		metrics.APIRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
		metrics.APIDurationMs.WithLabelValues(endpoint).Observe(float64(time.Since(start).Microseconds()) / 1000)
	})
}

// parseIdentityQuery lê tileId e batchId (número ou lista "1,2,3") da query.
func parseIdentityQuery(r *http.Request) (cityobject.Identity, error) {
	q := r.URL.Query()
	src := map[string]any{}

	if v := q.Get("tileId"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			src["tileId"] = n
		} else {
			src["tileId"] = v
		}
	}

	if v := q.Get("batchId"); v != "" {
		if strings.Contains(v, ",") {
			var list []any
			for _, part := range strings.Split(v, ",") {
				n, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
				if err != nil {
					list = append(list, part)
					continue
				}
				list = append(list, n)
			}
			src["batchId"] = list
		} else if n, err := strconv.ParseFloat(v, 64); err == nil {
			src["batchId"] = n
		} else {
			src["batchId"] = v
		}
	}

	return cityobject.MakeIdentity(src)
}

func (a *API) handleCityObject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "use GET")
		return
	}

	id, err := parseIdentityQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := a.store.Get(id.TileID)
	if err != nil {
		if errors.Is(err, tilestore.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	cacheKey := fmt.Sprintf("co:%s:%d", id.Key(), entry.MTime)
	if b, ok := a.cache.Get(r.Context(), cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.Write(b)
		return
	}

	layer, objs, err := a.tiles.CityObjects(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(objs) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("city object %s não encontrado", id))
		return
	}

	var body any
	if id.IsComposite() {
		list := make([]cityObjectResponse, len(objs))
		for i, co := range objs {
			list[i] = newCityObjectResponse(layer.ID, co)
		}
		body = list
	} else {
		body = newCityObjectResponse(layer.ID, objs[0])
	}

	b, err := json.Marshal(body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.cache.Set(r.Context(), cacheKey, b)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.Write(b)
}

func (a *API) handlePick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	var req pickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "corpo inválido: "+err.Error())
		return
	}
	dir := mgl32.Vec3(req.Direction)
	if dir.Len() == 0 {
		writeError(w, http.StatusBadRequest, "direction não pode ser nula")
		return
	}

	info, err := a.tiles.Pick(util.NewRay(mgl32.Vec3(req.Origin), dir), req.Layers...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if info == nil {
		metrics.PicksTotal.WithLabelValues("miss").Inc()
		writeJSON(w, http.StatusOK, pickResponse{Hit: false})
		return
	}

	metrics.PicksTotal.WithLabelValues("hit").Inc()
	writeJSON(w, http.StatusOK, newPickResponse(info))
}

func newPickResponse(info *picking.PickInfo) pickResponse {
	p := [3]float32(info.Hit.Point)
	resp := pickResponse{Hit: true, Distance: info.Hit.Distance, Point: &p}
	if info.Object != nil {
		layer := ""
		if info.Layer != nil {
			layer = info.Layer.ID
		}
		obj := newCityObjectResponse(layer, info.Object)
		resp.Object = &obj
	}
	return resp
}

func (a *API) handleTiles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listTiles(w)
	case http.MethodPost:
		a.importTiles(w, r)
	case http.MethodDelete:
		a.deleteTile(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "use GET, POST ou DELETE")
	}
}

// importTiles recebe uma lista de TileDoc em JSON e avisa os clientes do novo índice.
func (a *API) importTiles(w http.ResponseWriter, r *http.Request) {
	var docs []*tiledoc.TileDoc
	if err := json.NewDecoder(r.Body).Decode(&docs); err != nil {
		writeError(w, http.StatusBadRequest, "corpo inválido: "+err.Error())
		return
	}
	for _, doc := range docs {
		if doc == nil || len(doc.Meshes) == 0 {
			writeError(w, http.StatusBadRequest, "tile sem malhas")
			return
		}
	}

	n, err := a.tiles.Import(docs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.broadcastIndex()
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

func (a *API) deleteTile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id inválido")
		return
	}
	if _, err := a.store.Get(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err := a.tiles.Remove(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if a.hub != nil {
		a.hub.BroadcastEvict(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) broadcastIndex() {
	if a.hub == nil {
		return
	}
	idx, err := a.tiles.Index()
	if err != nil {
		log.Printf("[API] Erro ao montar índice: %v", err)
		return
	}
	a.hub.BroadcastIndex(idx)
}

func (a *API) listTiles(w http.ResponseWriter) {
	infos, err := a.store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	type tileJSON struct {
		ID       int    `json:"id"`
		Layer    string `json:"layer"`
		Name     string `json:"name"`
		Vertices int    `json:"vertices"`
		MTime    int64  `json:"mtime"`
	}
	out := make([]tileJSON, len(infos))
	for i, info := range infos {
		out[i] = tileJSON{ID: info.ID, Layer: info.Layer, Name: info.Name, Vertices: info.Vertices, MTime: info.MTime}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Erro ao escrever resposta: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// RateLimitMiddleware limita requisições por IP. rate usa o formato do limiter ("100-M").
func RateLimitMiddleware(rate string) (func(http.Handler) http.Handler, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("rate limit %q inválido: %w", rate, err)
	}
	instance := limiter.New(memory.NewStore(), parsed)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := instance.Get(r.Context(), clientIP(r))
			if err != nil {
				log.Printf("[API] Erro no rate limiter: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(ctx.Reset, 10))

			if ctx.Reached {
				retry := max(ctx.Reset-time.Now().Unix(), 0)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprintf(w, rateLimitExceededJSON, retry)
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
