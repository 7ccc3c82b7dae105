package logs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Alijeyrad/medstage_backend/config"
)

// lokiWriter pushes every Write as one line to Loki's push API.
type lokiWriter struct {
	endpoint string
	username string
	password string
	labels   map[string]string
	client   *http.Client
	now      func() time.Time
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

type lokiPush struct {
	Streams []lokiStream `json:"streams"`
}

func newLokiWriter(cfg *config.Config) *lokiWriter {
	loki := cfg.Logging.Output.Loki
	return &lokiWriter{
		endpoint: loki.Endpoint + "/loki/api/v1/push",
		username: loki.Username,
		password: loki.Password,
		labels: map[string]string{
			"service": cfg.Observability.ServiceName,
			"env":     cfg.Server.Environment,
		},
		client: &http.Client{Timeout: 3 * time.Second},
		now:    time.Now,
	}
}

func newLokiHandler(cfg *config.Config, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(newLokiWriter(cfg), &slog.HandlerOptions{Level: level})
}

func (lw *lokiWriter) Write(p []byte) (int, error) {
	body, err := json.Marshal(lokiPush{Streams: []lokiStream{{
		Stream: lw.labels,
		Values: [][2]string{{strconv.FormatInt(lw.now().UnixNano(), 10), string(bytes.TrimRight(p, "\n"))}},
	}}})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, lw.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if lw.username != "" {
		req.SetBasicAuth(lw.username, lw.password)
	}

	resp, err := lw.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return 0, fmt.Errorf("loki push: status %d", resp.StatusCode)
	}
	return len(p), nil
}
