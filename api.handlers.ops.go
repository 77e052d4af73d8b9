package main

import (
	"expvar"
	"net/http"
	"net/http/pprof"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Index points clients to the api documentation.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := &MessageResponse{Message: "Visit /apidocs for API documentation"}
	if err := WriteResponse(r.Context(), w, http.StatusOK, resp); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send index response", zap.Error(err))
	}
}

// Status provides basics details about the application to the public users.
func (api *APIHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := map[string]interface{}{
		"requestid": GetValueFromContext(r.Context(), RequestIDContextKey),
		"status":    "up & running since " + Uptime(api.clock, api.stats.started),
		"message":   "Hello. Library api is available. Enjoy :)",
	}
	if err := WriteResponse(r.Context(), w, http.StatusOK, resp); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send status response", zap.Error(err))
	}
}

// Health reports whether the book store answers. It returns 503 otherwise.
func (api *APIHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	status, resp := http.StatusOK, map[string]string{"status": "ok"}
	if err := api.bookService.Ping(r.Context()); err != nil {
		logger.Error("health check failed", zap.Error(err))
		status, resp = http.StatusServiceUnavailable, map[string]string{"status": "unavailable"}
	}
	if err := WriteResponse(r.Context(), w, status, resp); err != nil {
		logger.Error("failed to send health response", zap.Error(err))
	}
}

// NotFound is the fallback for routes that do not exist.
func (api *APIHandler) NotFound(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := map[string]string{
		"error": "Route not found",
		"path":  r.Method + " " + r.URL.Path,
	}
	if err := WriteResponse(r.Context(), w, http.StatusNotFound, resp); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send not found response", zap.Error(err))
	}
}

// MethodNotAllowed is the fallback for existing routes called with an unsupported method.
// The router already set the Allow header.
func (api *APIHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := map[string]string{
		"error": "Method not allowed",
		"path":  r.Method + " " + r.URL.Path,
	}
	if err := WriteResponse(r.Context(), w, http.StatusMethodNotAllowed, resp); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send method not allowed response", zap.Error(err))
	}
}

// Maintenance handles request to enable or disable the maintenance mode of the service.
// Enable the maintenance mode : /ops/maintenance?status=enable&msg=message-to-be-displayed-to-users
// Disable the maintenance mode: /ops/maintenance?status=disable
func (api *APIHandler) Maintenance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	q := r.URL.Query()
	var status int
	var resp map[string]interface{}

	switch mstatus := q.Get("status"); mstatus {
	case "enable":
		api.mode.mu.Lock()
		api.mode.message = q.Get("msg")
		api.mode.started = api.clock.Now().UTC()
		api.mode.enabled.Store(true)
		status = http.StatusOK
		resp = map[string]interface{}{
			"maintenance.started": api.mode.started.Format(time.RFC1123),
			"maintenance.message": api.mode.message,
			"message":             "Maintenance mode enabled successfully.",
		}
		api.mode.mu.Unlock()
		logger.Info("maintenance mode enabled", zap.String("maintenance.message", q.Get("msg")))

	case "disable":
		api.mode.mu.Lock()
		api.mode.enabled.Store(false)
		api.mode.started = time.Time{}
		api.mode.message = ""
		api.mode.mu.Unlock()
		status = http.StatusOK
		resp = map[string]interface{}{"message": "Maintenance mode disabled successfully."}
		logger.Info("maintenance mode disabled")

	default:
		status = http.StatusBadRequest
		resp = map[string]interface{}{"error": "Invalid maintenance status. Use enable or disable."}
	}

	if err := WriteResponse(r.Context(), w, status, resp); err != nil {
		logger.Error("failed to send maintenance response", zap.Error(err))
	}
}

// MaintenanceStatus replies with 503 and the configured maintenance message.
func (api *APIHandler) MaintenanceStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.mode.mu.RLock()
	resp := map[string]interface{}{
		"error":  "Service currently unavailable.",
		"reason": api.mode.message,
		"since":  api.mode.started.Format(time.RFC1123),
	}
	api.mode.mu.RUnlock()
	if err := WriteResponse(r.Context(), w, http.StatusServiceUnavailable, resp); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send maintenance response", zap.Error(err))
	}
}

// export goroutines to be used by expvar handler.
var goroutines = expvar.NewInt("goroutines")

// GetMemStats returns memory statistics with number of goroutines in json.
func GetMemStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	goroutines.Set(int64(runtime.NumGoroutine()))
	expvar.Handler().ServeHTTP(w, r)
}

// RunGC forces the run of the garbage collector asynchronously.
func (api *APIHandler) RunGC(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	go runtime.GC()
	if err := WriteResponse(r.Context(), w, http.StatusOK, map[string]string{"called": "go runtime.GC()"}); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send run gc response", zap.Error(err))
	}
}

// FreeOSMemory forces the garbage collector to run and tries to return the memory
// back to the operating system in an asynchronous fashion.
func (api *APIHandler) FreeOSMemory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	go debug.FreeOSMemory()
	if err := WriteResponse(r.Context(), w, http.StatusOK, map[string]string{"called": "go debug.FreeOSMemory()"}); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send free os memory response", zap.Error(err))
	}
}

// GetStatistics provides useful details about the application to the internal ops users.
// The stats returns by this handler do not contain the ops request which triggered that.
// That is why we remove 1 from the called field value in order to match the status stats.
func (api *APIHandler) GetStatistics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.mode.mu.RLock()
	maintenance := map[string]interface{}{
		"enabled": api.mode.enabled.Load(),
		"started": "",
		"message": api.mode.message,
	}
	if !api.mode.started.IsZero() {
		maintenance["started"] = api.mode.started.Format(time.RFC1123)
	}
	api.mode.mu.RUnlock()

	api.stats.mu.RLock()
	status := make(map[string]uint64, len(api.stats.status))
	for code, count := range api.stats.status {
		status[strconv.Itoa(code)] = count
	}
	api.stats.mu.RUnlock()

	called := atomic.LoadUint64(&api.stats.called)
	if called > 0 {
		called--
	}
	resp := map[string]interface{}{
		"requestid":     GetValueFromContext(r.Context(), RequestIDContextKey),
		"app.version":   api.stats.version,
		"app.container": api.stats.container,
		"app.platform":  api.stats.platform,
		"go.version":    api.stats.runtime,
		"called":        called,
		"started":       api.stats.started.Format(time.RFC1123),
		"uptime":        Uptime(api.clock, api.stats.started),
		"maintenance":   maintenance,
		"status":        status,
	}
	if err := WriteResponse(r.Context(), w, http.StatusOK, resp); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send statistics response", zap.Error(err))
	}
}

// GetConfigs serves current in-use configurations with secrets masked.
func (api *APIHandler) GetConfigs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := map[string]interface{}{"configs": api.config.Masked()}
	if err := WriteResponse(r.Context(), w, http.StatusOK, resp); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send configs response", zap.Error(err))
	}
}

// OpsHandlerWrapper adapts a standard http.Handler to the router.
func (api *APIHandler) OpsHandlerWrapper(h http.Handler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.ServeHTTP(w, r)
	}
}

// GetCPUProfile extends the connection write deadline to cover the requested
// profiling duration before running the cpu profiler.
func (api *APIHandler) GetCPUProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.extendWriteDeadline(w, r)
	pprof.Profile(w, r)
}

// GetTraceProfile extends the connection write deadline like GetCPUProfile then runs the tracer.
func (api *APIHandler) GetTraceProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.extendWriteDeadline(w, r)
	pprof.Trace(w, r)
}

func (api *APIHandler) extendWriteDeadline(w http.ResponseWriter, r *http.Request) {
	seconds, err := strconv.ParseInt(r.URL.Query().Get("seconds"), 10, 64)
	if err != nil || seconds <= 0 {
		seconds = 30
	}
	deadline := api.clock.Now().Add(time.Duration(seconds)*time.Second + api.config.Server.WriteTimeout)
	if err := http.NewResponseController(w).SetWriteDeadline(deadline); err != nil {
		api.GetLoggerFromContext(r.Context()).Warn("failed to extend write deadline", zap.Error(err))
	}
}
