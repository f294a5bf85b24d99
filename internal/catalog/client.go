package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel/manga-link-finder/internal/models"
)

const mangaListQuery = `
query ($userName: String) {
  MediaListCollection(userName: $userName, type: MANGA) {
    lists {
      name
      entries {
        id
        progress
        status
        score
        updatedAt
        media {
          id
          title { romaji english native userPreferred }
          synonyms
          description
          isAdult
          tags { name isAdult }
          coverImage { extraLarge large medium color }
        }
      }
    }
  }
}`

type Client struct {
	endpoint   string
	httpClient *http.Client
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLResponse struct {
	Data struct {
		MediaListCollection *models.CatalogCollection `json:"MediaListCollection"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func NewClient(endpoint string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{endpoint: strings.TrimSpace(endpoint), httpClient: client}
}

// FetchCollection loads the manga list collection of userName.
func (c *Client) FetchCollection(ctx context.Context, userName string) (models.CatalogCollection, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return models.CatalogCollection{}, fmt.Errorf("catalog user is required")
	}

	payload, err := json.Marshal(graphQLRequest{
		Query:     mangaListQuery,
		Variables: map[string]any{"userName": userName},
	})
	if err != nil {
		return models.CatalogCollection{}, fmt.Errorf("encode catalog query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return models.CatalogCollection{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return models.CatalogCollection{}, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 32<<20))
	if err != nil {
		return models.CatalogCollection{}, fmt.Errorf("read response body: %w", err)
	}

	var decoded graphQLResponse
	decodeErr := json.Unmarshal(body, &decoded)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		if decodeErr == nil && len(decoded.Errors) > 0 {
			return models.CatalogCollection{}, fmt.Errorf("catalog api status %d: %s", res.StatusCode, decoded.Errors[0].Message)
		}
		return models.CatalogCollection{}, fmt.Errorf("catalog api status %d", res.StatusCode)
	}
	if decodeErr != nil {
		return models.CatalogCollection{}, fmt.Errorf("decode catalog response: %w", decodeErr)
	}
	if len(decoded.Errors) > 0 {
		return models.CatalogCollection{}, fmt.Errorf("catalog api error: %s", decoded.Errors[0].Message)
	}
	if decoded.Data.MediaListCollection == nil {
		return models.CatalogCollection{}, fmt.Errorf("catalog response has no collection")
	}

	return *decoded.Data.MediaListCollection, nil
}
