package pdfrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	pdfhttp "github.com/goliatone/go-pdfgen/adapters/http"
	"github.com/goliatone/go-pdfgen/adapters/pdfapi"
	"github.com/goliatone/go-pdfgen/pdfgen"
	"github.com/goliatone/go-router"
)

func newTestService(id string) (pdfgen.Service, pdfgen.ProgressTracker, pdfgen.ArtifactStore) {
	engine := pdfgen.EngineFunc(func(ctx context.Context, req pdfgen.RenderRequest) ([]byte, error) {
		return []byte("%PDF-1.4 payload"), nil
	})
	runner := pdfgen.NewRunner(engine)
	runner.Tracker = pdfgen.NewMemoryTracker()
	runner.Store = pdfgen.NewMemoryStore()
	runner.IDGenerator = func() string { return id }
	manager := pdfgen.NewManager(runner)
	return manager, runner.Tracker, runner.Store
}

func TestTransportParity_Generate(t *testing.T) {
	actor := pdfgen.Actor{ID: "user-1"}

	svcHTTP, _, storeHTTP := newTestService("pdf-parity")
	svcRouter, _, storeRouter := newTestService("pdf-parity")

	cfgHTTP := pdfapi.Config{
		Service:       svcHTTP,
		Store:         storeHTTP,
		ActorProvider: pdfhttp.StaticActorProvider{Actor: actor},
	}
	cfgRouter := pdfapi.Config{
		Service:       svcRouter,
		Store:         storeRouter,
		ActorProvider: pdfhttp.StaticActorProvider{Actor: actor},
	}

	httpHandler := pdfhttp.NewHandler(cfgHTTP)
	routerHandler := NewHandler(cfgRouter)

	body := `{"name":"invoice","html":"<h1>hi</h1>"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/pdfs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	httpHandler.ServeHTTP(rec, req)

	routerCtx := newTestHTTPContext(http.MethodPost, "/admin/pdfs", []byte(body), nil, nil)
	if err := routerHandler.Handle(routerCtx); err != nil {
		t.Fatalf("router handle: %v", err)
	}

	if rec.Code != routerCtx.recorder.Code {
		t.Fatalf("status mismatch: http=%d router=%d", rec.Code, routerCtx.recorder.Code)
	}
	var httpPayload pdfapi.GenerateResponse
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&httpPayload); err != nil {
		t.Fatalf("decode http response: %v", err)
	}
	var routerPayload pdfapi.GenerateResponse
	if err := json.NewDecoder(bytes.NewReader(routerCtx.recorder.Body.Bytes())).Decode(&routerPayload); err != nil {
		t.Fatalf("decode router response: %v", err)
	}
	if httpPayload != routerPayload {
		t.Fatalf("payload mismatch: http=%+v router=%+v", httpPayload, routerPayload)
	}
	if httpPayload.ID != "pdf-parity" {
		t.Fatalf("unexpected generation id %q", httpPayload.ID)
	}
}

func TestTransportParity_Download(t *testing.T) {
	actor := pdfgen.Actor{ID: "user-1"}

	seed := func(t *testing.T) (pdfgen.Service, pdfgen.ArtifactStore) {
		t.Helper()
		svc, tracker, store := newTestService("pdf-dl")
		ref, err := store.Put(context.Background(), "pdf-dl/invoice.pdf", bytes.NewBufferString("%PDF-1.4 data"), pdfgen.ArtifactMeta{
			Filename:    "invoice.pdf",
			ContentType: "application/pdf",
		})
		if err != nil {
			t.Fatalf("store put: %v", err)
		}
		if _, err := tracker.Start(context.Background(), pdfgen.GenerationRecord{
			ID:       "pdf-dl",
			Name:     "invoice",
			State:    pdfgen.StateCompleted,
			Artifact: ref,
		}); err != nil {
			t.Fatalf("tracker start: %v", err)
		}
		return svc, store
	}

	svcHTTP, storeHTTP := seed(t)
	svcRouter, storeRouter := seed(t)

	httpHandler := pdfhttp.NewHandler(pdfapi.Config{
		Service:       svcHTTP,
		Store:         storeHTTP,
		ActorProvider: pdfhttp.StaticActorProvider{Actor: actor},
	})
	routerHandler := NewHandler(pdfapi.Config{
		Service:       svcRouter,
		Store:         storeRouter,
		ActorProvider: pdfhttp.StaticActorProvider{Actor: actor},
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/pdfs/pdf-dl/download", nil)
	rec := httptest.NewRecorder()
	httpHandler.ServeHTTP(rec, req)

	routerCtx := newTestHTTPContext(http.MethodGet, "/admin/pdfs/pdf-dl/download", nil, nil, nil)
	if err := routerHandler.Handle(routerCtx); err != nil {
		t.Fatalf("router handle: %v", err)
	}

	if rec.Code != routerCtx.recorder.Code {
		t.Fatalf("status mismatch: http=%d router=%d", rec.Code, routerCtx.recorder.Code)
	}
	if rec.Header().Get("Content-Type") != routerCtx.recorder.Header().Get("Content-Type") {
		t.Fatalf("content-type mismatch: http=%q router=%q", rec.Header().Get("Content-Type"), routerCtx.recorder.Header().Get("Content-Type"))
	}
	if rec.Header().Get("Content-Disposition") != routerCtx.recorder.Header().Get("Content-Disposition") {
		t.Fatalf("content-disposition mismatch: http=%q router=%q", rec.Header().Get("Content-Disposition"), routerCtx.recorder.Header().Get("Content-Disposition"))
	}
	if rec.Body.String() != routerCtx.recorder.Body.String() {
		t.Fatalf("body mismatch: http=%q router=%q", rec.Body.String(), routerCtx.recorder.Body.String())
	}
	if routerCtx.sendCalled {
		t.Fatalf("expected streaming response, got buffered send")
	}
}

func TestRouterBufferedFallback(t *testing.T) {
	actor := pdfgen.Actor{ID: "user-1"}
	svc, tracker, store := newTestService("pdf-buf")

	ref, err := store.Put(context.Background(), "pdf-buf/report.pdf", bytes.NewBufferString("%PDF-1.4 buffered"), pdfgen.ArtifactMeta{
		Filename:    "report.pdf",
		ContentType: "application/pdf",
	})
	if err != nil {
		t.Fatalf("store put: %v", err)
	}
	if _, err := tracker.Start(context.Background(), pdfgen.GenerationRecord{
		ID:       "pdf-buf",
		Name:     "report",
		State:    pdfgen.StateCompleted,
		Artifact: ref,
	}); err != nil {
		t.Fatalf("tracker start: %v", err)
	}

	handler := NewHandler(pdfapi.Config{
		Service:        svc,
		Store:          store,
		ActorProvider:  pdfhttp.StaticActorProvider{Actor: actor},
		MaxBufferBytes: 1024,
	})

	ctx := newTestContext(http.MethodGet, "/admin/pdfs/pdf-buf/download", nil, nil, nil)
	if err := handler.Handle(ctx); err != nil {
		t.Fatalf("router handle: %v", err)
	}

	if ctx.recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", ctx.recorder.Code)
	}
	if !ctx.sendCalled {
		t.Fatalf("expected buffered send when HTTPContext is unavailable")
	}
	if ctx.recorder.Body.String() != "%PDF-1.4 buffered" {
		t.Fatalf("unexpected body %q", ctx.recorder.Body.String())
	}
}

type testContext struct {
	method        string
	path          string
	body          []byte
	query         map[string]string
	headers       map[string]string
	params        map[string]string
	locals        map[any]any
	ctx           context.Context
	recorder      *httptest.ResponseRecorder
	statusWritten bool
	status        int
	sendCalled    bool
}

func newTestContext(method, path string, body []byte, headers map[string]string, query map[string]string) *testContext {
	if headers == nil {
		headers = make(map[string]string)
	}
	if query == nil {
		query = make(map[string]string)
	}
	return &testContext{
		method:   method,
		path:     path,
		body:     body,
		query:    query,
		headers:  headers,
		params:   make(map[string]string),
		locals:   make(map[any]any),
		ctx:      context.Background(),
		recorder: httptest.NewRecorder(),
	}
}

func (c *testContext) Bind(v any) error {
	if len(c.body) == 0 {
		return nil
	}
	return json.Unmarshal(c.body, v)
}

func (c *testContext) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

func (c *testContext) SetContext(ctx context.Context) {
	c.ctx = ctx
}

func (c *testContext) Next() error { return nil }

func (c *testContext) RouteName() string { return "" }

func (c *testContext) RouteParams() map[string]string { return c.params }

func (c *testContext) Method() string { return c.method }

func (c *testContext) Path() string { return c.path }

func (c *testContext) Param(name string, defaultValue ...string) string {
	if val, ok := c.params[name]; ok {
		return val
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *testContext) ParamsInt(key string, defaultValue int) int {
	val := c.Param(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func (c *testContext) Query(name string, defaultValue ...string) string {
	if val, ok := c.query[name]; ok {
		return val
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *testContext) QueryValues(name string) []string {
	if val, ok := c.query[name]; ok {
		return []string{val}
	}
	return nil
}

func (c *testContext) QueryInt(name string, defaultValue int) int {
	val := c.Query(name)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func (c *testContext) Queries() map[string]string { return c.query }

func (c *testContext) Body() []byte { return c.body }

func (c *testContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		c.locals[key] = value[0]
		return value[0]
	}
	return c.locals[key]
}

func (c *testContext) LocalsMerge(key any, value map[string]any) map[string]any {
	merged, _ := c.locals[key].(map[string]any)
	if merged == nil {
		merged = map[string]any{}
	}
	for k, v := range value {
		merged[k] = v
	}
	c.locals[key] = merged
	return merged
}

func (c *testContext) Render(name string, bind any, layouts ...string) error {
	return nil
}

func (c *testContext) Cookie(cookie *router.Cookie) {}

func (c *testContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *testContext) CookieParser(out any) error { return nil }

func (c *testContext) Redirect(location string, status ...int) error {
	code := http.StatusFound
	if len(status) > 0 {
		code = status[0]
	}
	c.SetHeader("Location", location)
	c.writeHeader(code)
	return nil
}

func (c *testContext) RedirectToRoute(routeName string, params router.ViewContext, status ...int) error {
	return nil
}

func (c *testContext) RedirectBack(fallback string, status ...int) error {
	return nil
}

func (c *testContext) Header(name string) string {
	return c.headers[name]
}

func (c *testContext) Referer() string { return "" }

func (c *testContext) OriginalURL() string { return c.path }

func (c *testContext) FormFile(key string) (*multipart.FileHeader, error) {
	return nil, nil
}

func (c *testContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *testContext) IP() string { return "127.0.0.1" }

func (c *testContext) Status(code int) router.Context {
	c.writeHeader(code)
	return c
}

func (c *testContext) Send(body []byte) error {
	c.sendCalled = true
	if !c.statusWritten {
		c.writeHeader(http.StatusOK)
	}
	_, err := c.recorder.Write(body)
	return err
}

func (c *testContext) SendString(body string) error {
	return c.Send([]byte(body))
}

func (c *testContext) SendStatus(code int) error {
	c.writeHeader(code)
	return nil
}

func (c *testContext) JSON(code int, v any) error {
	c.recorder.Header().Set("Content-Type", "application/json")
	c.writeHeader(code)
	return json.NewEncoder(c.recorder).Encode(v)
}

func (c *testContext) SendStream(r io.Reader) error {
	if !c.statusWritten {
		c.writeHeader(http.StatusOK)
	}
	_, err := io.Copy(c.recorder, r)
	return err
}

func (c *testContext) NoContent(code int) error {
	c.writeHeader(code)
	return nil
}

func (c *testContext) SetHeader(key, val string) router.Context {
	c.recorder.Header().Set(key, val)
	return c
}

func (c *testContext) Set(key string, value any) {
	c.locals[key] = value
}

func (c *testContext) Get(key string, def any) any {
	if val, ok := c.locals[key]; ok {
		return val
	}
	return def
}

func (c *testContext) GetString(key string, def string) string {
	if val, ok := c.locals[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return def
}

func (c *testContext) GetInt(key string, def int) int {
	if val, ok := c.locals[key]; ok {
		if num, ok := val.(int); ok {
			return num
		}
	}
	return def
}

func (c *testContext) GetBool(key string, def bool) bool {
	if val, ok := c.locals[key]; ok {
		if flag, ok := val.(bool); ok {
			return flag
		}
	}
	return def
}

func (c *testContext) writeHeader(code int) {
	if c.statusWritten {
		c.status = code
		return
	}
	c.statusWritten = true
	c.status = code
	c.recorder.WriteHeader(code)
}

type testHTTPContext struct {
	*testContext
	req *http.Request
}

func newTestHTTPContext(method, path string, body []byte, headers map[string]string, query map[string]string) *testHTTPContext {
	base := newTestContext(method, path, body, headers, query)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for key, value := range headers {
		req.Header.Set(key, value)
		base.headers[key] = value
	}
	base.ctx = req.Context()
	return &testHTTPContext{testContext: base, req: req}
}

func (c *testHTTPContext) Request() *http.Request { return c.req }

func (c *testHTTPContext) Response() http.ResponseWriter { return c.recorder }

var _ router.Context = (*testContext)(nil)
var _ router.Context = (*testHTTPContext)(nil)
var _ router.HTTPContext = (*testHTTPContext)(nil)
