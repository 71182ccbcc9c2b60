package hive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joshp123/hive-heat/internal/rate"
	"github.com/joshp123/hive-heat/internal/session"
)

const heatingType = "heating"

// Client talks to the Hive beekeeper REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// loginLimits keeps a misbehaving run from hammering the rate-limited login
// endpoint; other calls are not limited.
func loginLimits() rate.Declaration {
	return rate.Provider("hive").
		MaxRequestsPer(rate.Minute, 3).
		CooldownOn429(time.Minute).
		ReadHeaders(rate.StandardHeaders()).
		Only(func(r *http.Request) bool {
			return strings.HasSuffix(r.URL.Path, "/global/login")
		})
}

// NewClient builds a client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    cfg.baseURL(),
		httpClient: rate.WrapHTTP(loginLimits(), httpClient),
	}
}

// Login exchanges username and password for a session token.
func (c *Client) Login(ctx context.Context, creds session.Credentials) (string, error) {
	payload := struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Devices  bool   `json:"devices"`
		Products bool   `json:"products"`
		Actions  bool   `json:"actions"`
		Homes    bool   `json:"homes"`
	}{
		Username: creds.Username,
		Password: creds.Password,
		Devices:  true,
		Products: true,
		Actions:  true,
		Homes:    true,
	}

	body, err := c.do(ctx, "login", http.MethodPost, "global/login", "", payload)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return "", &AuthError{Status: apiErr.Status, Body: apiErr.Body}
		}
		return "", &AuthError{Err: err}
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &AuthError{Body: string(body), Err: fmt.Errorf("decode login response: %w", err)}
	}
	if strings.TrimSpace(resp.Token) == "" {
		return "", &AuthError{Body: string(body), Err: fmt.Errorf("response has no token")}
	}
	return resp.Token, nil
}

// Logout invalidates token server-side.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.do(ctx, "logout", http.MethodDelete, "auth/logout", token, struct{}{})
	return err
}

// Products lists the account's products. Only heating entries are decoded in
// full; a heating entry that does not decode fails the whole call.
func (c *Client) Products(ctx context.Context, token string) ([]Device, error) {
	body, err := c.do(ctx, "products", http.MethodGet, "products?after=", token, nil)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &APIError{Op: "products", Status: http.StatusOK, Body: string(body), Err: fmt.Errorf("decode products: %w", err)}
	}

	devices := make([]Device, 0, len(raw))
	for _, entry := range raw {
		var head struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		}
		if err := json.Unmarshal(entry, &head); err != nil {
			return nil, &APIError{Op: "products", Status: http.StatusOK, Body: string(entry), Err: fmt.Errorf("decode product: %w", err)}
		}
		device := Device{ID: head.ID, Type: head.Type}
		if head.Type == heatingType {
			if err := json.Unmarshal(entry, &device); err != nil {
				return nil, &APIError{Op: "products", Status: http.StatusOK, Body: string(entry), Err: fmt.Errorf("decode heating product: %w", err)}
			}
			if missing := missingHeatingFields(entry); len(missing) > 0 {
				return nil, &APIError{Op: "products", Status: http.StatusOK, Body: string(entry), Err: fmt.Errorf("heating product missing %s", strings.Join(missing, ", "))}
			}
		}
		devices = append(devices, device)
	}
	return devices, nil
}

// missingHeatingFields names the status fields absent from a heating entry.
// A zero value would otherwise read as 0.0°C and idle.
func missingHeatingFields(entry json.RawMessage) []string {
	var fields struct {
		Props struct {
			Temperature *float64 `json:"temperature"`
			Working     *bool    `json:"working"`
		} `json:"props"`
		State struct {
			Target *float64 `json:"target"`
		} `json:"state"`
	}
	if err := json.Unmarshal(entry, &fields); err != nil {
		return []string{"props", "state"}
	}
	var missing []string
	if fields.Props.Temperature == nil {
		missing = append(missing, "props.temperature")
	}
	if fields.Props.Working == nil {
		missing = append(missing, "props.working")
	}
	if fields.State.Target == nil {
		missing = append(missing, "state.target")
	}
	return missing
}

// SetTarget sets the heating set-point. There is no read-back.
func (c *Client) SetTarget(ctx context.Context, token string, device Device, targetC float64) error {
	if device.ID == "" {
		return fmt.Errorf("heating device has no id")
	}
	payload := map[string]float64{"target": targetC}
	_, err := c.do(ctx, "set target", http.MethodPost, "nodes/heating/"+url.PathEscape(device.ID), token, payload)
	return err
}

func (c *Client) do(ctx context.Context, op, method, path, token string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	apiRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode >= 300 {
		return nil, &APIError{Op: op, Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
