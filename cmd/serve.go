package cmd

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jsphweid/boomparts/config"
	"github.com/jsphweid/boomparts/engine"
	"github.com/jsphweid/boomparts/model"
)

const maxScoreBytes = 10 << 20

var (
	serveConfig *config.Config
	serveLogger = zap.NewNop()
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the assignment engine over HTTP",
	Long:  `Serves POST /assign (a JSON score in, parts and diagnostics out) and GET /inventory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
		LoadServeConfig(cfg, logger)
		logger.Info("serving", zap.String("bind", cfg.Server.Bind))
		return http.ListenAndServe(cfg.Server.Bind, NewRouter())
	},
}

// LoadServeConfig sets what the handlers run with. Without it they use the
// defaults.
func LoadServeConfig(cfg *config.Config, logger *zap.Logger) {
	serveConfig = cfg
	if logger != nil {
		serveLogger = logger
	}
}

func currentConfig() config.Config {
	if serveConfig == nil {
		return config.Default()
	}
	return *serveConfig
}

func NewRouter() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/assign", HandleAssign).Methods("POST")
	router.HandleFunc("/inventory", HandleInventory).Methods("GET")

	origins := currentConfig().Server.AllowedOrigins
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		serveLogger.Warn("could not write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// HandleAssign runs one assignment. Query parameters copies, policy and
// packing override the server's configuration for this request only. A run
// that fails still returns its diagnostics, with status 422.
func HandleAssign(w http.ResponseWriter, r *http.Request) {
	var s model.Score
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScoreBytes))
	if err := dec.Decode(&s); err != nil {
		writeError(w, http.StatusBadRequest, "Could not read score: "+err.Error())
		return
	}
	if err := s.CheckVoices(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid score: "+err.Error())
		return
	}

	cfg := currentConfig()
	q := r.URL.Query()
	if v := q.Get("copies"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "copies must be a number")
			return
		}
		cfg.Inventory.Copies = n
	}
	if v := q.Get("policy"); v != "" {
		cfg.Scheduling.ConflictPolicy = v
	}
	if v := q.Get("packing"); v != "" {
		cfg.Scheduling.PerformerPacking = v
	}
	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts, err := cfg.EngineOptions(serveLogger)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := engine.Run(s, opts)
	resp := model.AssignResponse{
		Failed:      res.Failed,
		Performers:  res.Assignment.Performers,
		Parts:       res.Parts,
		Diagnostics: res.Diagnostics,
	}
	if resp.Performers == nil {
		resp.Performers = []model.Performer{}
	}
	if resp.Parts == nil {
		resp.Parts = []model.Part{}
	}
	if resp.Diagnostics == nil {
		resp.Diagnostics = []model.Diagnostic{}
	}
	status := http.StatusOK
	if res.Failed {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func HandleInventory(w http.ResponseWriter, r *http.Request) {
	cfg := currentConfig()
	entries, err := inventoryEntries(&cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
