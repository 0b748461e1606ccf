package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tomnomnom/linkheader"
)

// DefaultAPIURL is the public GitHub REST endpoint.
const DefaultAPIURL = "https://api.github.com"

// Client implements ports.OrgLookup against the GitHub REST API.
type Client struct {
	httpClient *http.Client
	apiURL     string
}

// NewClient creates a Client for apiURL. A nil httpClient uses
// http.DefaultClient.
func NewClient(apiURL string, httpClient *http.Client) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		apiURL:     strings.TrimSuffix(apiURL, "/"),
	}
}

type organization struct {
	Login string `json:"login"`
}

// UserOrganizations lists the logins of every organization the owner of
// credential belongs to, following pagination.
func (c *Client) UserOrganizations(ctx context.Context, credential string) ([]string, error) {
	var logins []string

	nextURL := c.apiURL + "/user/orgs?per_page=100"
	for nextURL != "" {
		var (
			b   []byte
			err error
		)
		b, nextURL, err = c.get(ctx, credential, nextURL)
		if err != nil {
			return nil, err
		}

		var orgs []organization
		if err := json.Unmarshal(b, &orgs); err != nil {
			logrus.Errorf("Github UserOrganizations: received error unmarshalling org array, err: %v", err)
			return nil, errors.Wrap(err, "decoding organizations")
		}
		for _, org := range orgs {
			logins = append(logins, org.Login)
		}
	}

	return logins, nil
}

func (c *Client) get(ctx context.Context, credential, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", authorization(credential))
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.Errorf("Received error from github: %v", err)
		return nil, "", errors.Wrap(err, "github request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body bytes.Buffer
		io.Copy(&body, resp.Body)
		logrus.Debugf("Response from GitHub HTTP %d:\n%s", resp.StatusCode, body.Bytes())
		return nil, "", errors.Errorf("request failed, got status code: %d", resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errors.Wrap(err, "reading github response")
	}
	return b, nextPage(resp), nil
}

// authorization sends user:token credentials as Basic auth and a bare token
// with the token scheme.
func authorization(credential string) string {
	if strings.Contains(credential, ":") {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(credential))
	}
	return "token " + credential
}

func nextPage(resp *http.Response) string {
	header := resp.Header.Get("Link")
	if header == "" {
		return ""
	}
	for _, link := range linkheader.Parse(header) {
		if link.Rel == "next" {
			return link.URL
		}
	}
	return ""
}
