package zabbix

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/moudsen/mailGraph/internal/logging"
	"github.com/moudsen/mailGraph/internal/models"
)

// Graph type codes as stored by the platform.
const (
	GraphTypeNormal   = 0
	GraphTypeStacked  = 1
	GraphTypePie      = 2
	GraphTypeExploded = 3
)

// GraphRequest describes one chart image to render.
type GraphRequest struct {
	GraphID    string
	Width      int
	Height     int
	Type       int
	ShowLegend int
	// Period is a relative window in the platform's own duration syntax
	// ("48h", "7d"); it is passed through unvalidated.
	Period string
}

// GraphFetcher retrieves rendered chart images.
type GraphFetcher interface {
	FetchGraph(ctx context.Context, req GraphRequest) (models.RenderedImage, error)
}

// ImageFetcher logs in to the platform web UI with its own credential pair
// and downloads rendered charts into the images directory.
type ImageFetcher struct {
	baseURL   string
	user      string
	pass      string
	imagesDir string
	skipTLS   bool
	log       *logging.Logger

	// now is swappable for filename collision tests.
	now func() time.Time
}

var _ GraphFetcher = (*ImageFetcher)(nil)

// NewImageFetcher builds a fetcher for the given platform root URL.
func NewImageFetcher(baseURL, user, pass, imagesDir string, skipTLS bool, log *logging.Logger) *ImageFetcher {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &ImageFetcher{
		baseURL:   baseURL,
		user:      user,
		pass:      pass,
		imagesDir: imagesDir,
		skipTLS:   skipTLS,
		log:       log,
		now:       time.Now,
	}
}

// FetchGraph logs in, renders one chart for the relative window "now minus
// period" and persists it under a name unique across concurrent runs.
// The login session lives in an in-memory cookie jar that is discarded with
// the request, success or failure.
func (f *ImageFetcher) FetchGraph(ctx context.Context, req GraphRequest) (models.RenderedImage, error) {
	endpoint := chartEndpoint(req.Type)
	if endpoint == "" {
		f.log.Warnf("! unknown graph type %d, falling back to normal rendering", req.Type)
		endpoint = "chart2.php"
	}

	fetchURL := fmt.Sprintf("%s%s?graphid=%s&width=%d&height=%d&legend=%d&from=now-%s&to=now&profileIdx=web.charts.filter",
		f.baseURL, endpoint, url.QueryEscape(req.GraphID), req.Width, req.Height, req.ShowLegend, url.QueryEscape(req.Period))
	f.log.Infof("%% GraphImageById: %s", fetchURL)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return models.RenderedImage{}, fmt.Errorf("cookie jar: %w", err)
	}
	httpc := f.client(jar)

	if err := f.login(ctx, httpc); err != nil {
		f.log.Errorf("! graph login failed: %v", err)
		return models.RenderedImage{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return models.RenderedImage{}, fmt.Errorf("build graph request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "Zabbix-mailGraph - v"+Version)

	resp, err := httpc.Do(httpReq)
	if err != nil {
		return models.RenderedImage{}, fmt.Errorf("fetch graph %s: %w", req.GraphID, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.RenderedImage{}, fmt.Errorf("read graph %s: %w", req.GraphID, err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.RenderedImage{}, fmt.Errorf("fetch graph %s: status %d", req.GraphID, resp.StatusCode)
	}
	if len(payload) == 0 || bytes.HasPrefix(bytes.TrimSpace(payload), []byte("<")) {
		// The UI serves its login page instead of an image when the
		// session was rejected.
		return models.RenderedImage{}, fmt.Errorf("fetch graph %s: no image returned (web login rejected?)", req.GraphID)
	}

	filename := f.uniqueName(req.GraphID, req.Period)
	path := filepath.Join(f.imagesDir, filename)
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return models.RenderedImage{}, fmt.Errorf("write image %s: %w", path, err)
	}

	f.log.Infof("> Received %d bytes", len(payload))
	f.log.Infof("> Saved to %s", path)

	return models.RenderedImage{
		Filename: filename,
		Path:     path,
		Size:     len(payload),
		GraphID:  req.GraphID,
		Period:   req.Period,
	}, nil
}

func (f *ImageFetcher) login(ctx context.Context, httpc *http.Client) error {
	form := url.Values{}
	form.Set("name", f.user)
	form.Set("password", f.pass)
	form.Set("enter", "Sign in")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"index.php", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("User-Agent", "Zabbix-mailGraph - v"+Version)

	resp, err := httpc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("web login: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return nil
}

func (f *ImageFetcher) client(jar http.CookieJar) *http.Client {
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &http.Client{
		Jar: jar,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.DialContext(ctx, "tcp4", addr)
			},
			TLSClientConfig: &tls.Config{InsecureSkipVerify: f.skipTLS},
		},
	}
}

// uniqueName bakes graph id, a nanosecond timestamp and the period into the
// filename so concurrent runs fetching the same graph never collide.
func (f *ImageFetcher) uniqueName(graphID, period string) string {
	stamp := strconv.FormatInt(f.now().UnixNano(), 10)
	return "zabbix_graph_" + graphID + "_" + stamp + "_" + sanitize(period) + ".png"
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, s)
}

func chartEndpoint(graphType int) string {
	switch graphType {
	case GraphTypeNormal, GraphTypeStacked:
		return "chart2.php"
	case GraphTypePie, GraphTypeExploded:
		return "chart6.php"
	default:
		return ""
	}
}
