// Package zabbix talks to the monitoring platform: JSON-RPC API calls on one
// side, authenticated chart image fetches on the other.
package zabbix

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/moudsen/mailGraph/internal/logging"
)

const (
	// Version identifies this client in the User-Agent header.
	Version = "2.0"

	connectTimeout = 20 * time.Second
)

// ErrNotFound signals an empty result set for a lookup the caller may or may
// not treat as fatal.
var ErrNotFound = errors.New("zabbix: no result")

// RPCError is the error object of a JSON-RPC response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("zabbix api error %d: %s %s", e.Code, e.Message, e.Data)
}

// Capabilities describes version-gated platform behavior, resolved once per
// run by the version probe and threaded through the resolution layers.
type Capabilities struct {
	Major int
	Minor int
	// SupportsScreens is true on platforms that still expose legacy screens.
	SupportsScreens bool
	// UseBearerAuth is true when API calls must carry the token as an
	// Authorization header instead of the auth request parameter.
	UseBearerAuth bool
	// ModernLogin is true when user.login expects "username" over "user".
	ModernLogin bool
}

// Options configures a Client.
type Options struct {
	APIUser       string
	APIPass       string
	APIToken      string
	HTTPProxy     string
	TLSSkipVerify bool
}

// Client issues JSON-RPC requests against <baseURL>/api_jsonrpc.php.
// It is single-run, single-goroutine state: the session token and request-id
// counter live here instead of in globals.
type Client struct {
	apiURL string
	opts   Options
	httpc  *http.Client
	log    *logging.Logger

	caps    Capabilities
	session string
	nextID  int
}

// NewClient builds a client for the given platform root URL.
func NewClient(baseURL string, opts Options, log *logging.Logger) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	dialer := &net.Dialer{Timeout: connectTimeout}
	transport := &http.Transport{
		// IPv4 enforced, same as the curl-based predecessor.
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp4", addr)
		},
		TLSClientConfig: &tls.Config{InsecureSkipVerify: opts.TLSSkipVerify},
	}
	if opts.HTTPProxy != "" {
		proxyURL, err := url.Parse(opts.HTTPProxy)
		if err != nil {
			return nil, fmt.Errorf("invalid HTTP proxy %q: %w", opts.HTTPProxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Client{
		apiURL: baseURL + "api_jsonrpc.php",
		opts:   opts,
		httpc:  &http.Client{Transport: transport},
		log:    log,
	}, nil
}

// Capabilities returns the version descriptor resolved by ProbeVersion.
func (c *Client) Capabilities() Capabilities {
	return c.caps
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
	Auth    *string `json:"auth,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
	ID      int             `json:"id"`
}

// Call performs one JSON-RPC round trip. When withAuth is set the session
// token is attached as the auth parameter, or as a bearer header on platforms
// that require it. The version probe must always run with withAuth false.
func (c *Client) Call(ctx context.Context, method string, params any, withAuth bool) (json.RawMessage, error) {
	c.nextID++
	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID,
	}

	useBearer := false
	if withAuth {
		if c.caps.UseBearerAuth {
			// Bearer mode strips the session-token parameter entirely.
			useBearer = true
		} else {
			auth := c.session
			req.Auth = &auth
		}
	}

	c.log.Infof("%% api: %s", method)
	c.log.Debugf("> POST data %s", masked(req))

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", "Zabbix-mailGraph - v"+Version)
	if useBearer {
		httpReq.Header.Set("Authorization", "Bearer "+c.bearerToken())
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		c.log.Errorf("! api %s failed: %v", method, err)
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.log.Errorf("! api %s returned malformed response: %v", method, err)
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if decoded.Error != nil {
		c.log.Errorf("! api %s error: %v", method, decoded.Error)
		return nil, decoded.Error
	}

	c.log.Debugf("> received %d bytes", len(decoded.Result))
	return decoded.Result, nil
}

// bearerToken prefers the configured API token but falls back to the session
// token obtained by Login, which newer platforms also accept as bearer.
func (c *Client) bearerToken() string {
	if c.opts.APIToken != "" {
		return c.opts.APIToken
	}
	return c.session
}

// ProbeVersion resolves the platform version into a capability descriptor.
// This call never carries credentials of any kind.
func (c *Client) ProbeVersion(ctx context.Context) (Capabilities, error) {
	result, err := c.Call(ctx, "apiinfo.version", []string{}, false)
	if err != nil {
		return Capabilities{}, err
	}

	var version string
	if err := json.Unmarshal(result, &version); err != nil || version == "" {
		// An unexpected response shape used to crash here; now it aborts
		// the run with a diagnostic instead.
		return Capabilities{}, fmt.Errorf("unexpected apiinfo.version response: %s", string(result))
	}

	parts := strings.SplitN(version, ".", 3)
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return Capabilities{}, fmt.Errorf("unexpected apiinfo.version response: %q", version)
	}
	minor := 0
	if len(parts) > 1 {
		minor, _ = strconv.Atoi(parts[1])
	}

	c.caps = Capabilities{
		Major:           major,
		Minor:           minor,
		SupportsScreens: major <= 5,
		UseBearerAuth:   major >= 7,
		ModernLogin:     major >= 6,
	}
	c.log.Infof("> api version %s (screens=%v bearer=%v)", version, c.caps.SupportsScreens, c.caps.UseBearerAuth)
	return c.caps, nil
}

// Login obtains a session token via user.login. On bearer-auth platforms with
// a configured API token no login round trip is needed.
func (c *Client) Login(ctx context.Context) error {
	if c.caps.UseBearerAuth && c.opts.APIToken != "" {
		c.log.Infof("# using API token authentication")
		return nil
	}

	userKey := "user"
	if c.caps.ModernLogin {
		userKey = "username"
	}
	params := map[string]any{
		userKey:    c.opts.APIUser,
		"password": c.opts.APIPass,
	}

	c.log.Infof("# LOGIN to Zabbix")
	result, err := c.Call(ctx, "user.login", params, false)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	var token string
	if err := json.Unmarshal(result, &token); err != nil || token == "" {
		return fmt.Errorf("login: no session token returned")
	}
	c.session = token
	return nil
}
