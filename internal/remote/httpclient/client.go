// Package httpclient is the production remote.Client implementation: it
// issues GraphQL-style queries over HTTP to the external feedback data
// service, signing each request with a short-lived Ed25519 JWT, rate
// limiting per operation, and tracing every call with OpenTelemetry (spec
// §6).
package httpclient

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/scoreflow/hyouka/internal/apperr"
	"github.com/scoreflow/hyouka/internal/model"
	"github.com/scoreflow/hyouka/internal/remote"
	"github.com/scoreflow/hyouka/internal/telemetry"
)

// Config configures a Client.
type Config struct {
	Endpoint     string
	SigningKey   ed25519.PrivateKey // nil generates an ephemeral dev key
	ServiceName  string
	Audience     string
	TokenTTL     time.Duration
	RPS          float64
	Burst        int
	HTTPClient   *http.Client
}

// Client is the production remote.Client backed by HTTP.
type Client struct {
	endpoint string
	http     *http.Client
	issuer   *tokenIssuer
	limiter  *hostLimiter
	tracer   trace.Tracer
}

// New builds a Client from Config, defaulting RPS/Burst/HTTPClient and the
// token TTL the same way the teacher defaults its JWT expiration.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = rps2burst(rps)
	}
	return &Client{
		endpoint: cfg.Endpoint,
		http:     httpClient,
		issuer:   newTokenIssuer(cfg.SigningKey, cfg.ServiceName, cfg.Audience, cfg.TokenTTL),
		limiter:  newHostLimiter(rps, burst),
		tracer:   telemetry.Tracer("hyouka/remote/httpclient"),
	}
}

func rps2burst(rps float64) int {
	b := int(rps)
	if b < 1 {
		b = 1
	}
	return b
}

// graphQLRequest is the standard {query, variables} request envelope.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLError is one entry of the response envelope's "errors" array.
type graphQLError struct {
	Message   string         `json:"message"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e graphQLError) isSchemaMismatch() bool {
	if e.Extensions != nil {
		if code, ok := e.Extensions["code"].(string); ok {
			return code == "SCHEMA_MISMATCH" || code == "INVALID_INDEX"
		}
	}
	return false
}

// execute runs one GraphQL operation and decodes its "data" field into out.
func (c *Client) execute(ctx context.Context, op, query string, vars map[string]any, out any) error {
	ctx, span := c.tracer.Start(ctx, "remote."+op, trace.WithAttributes(attribute.String("graphql.operation", op)))
	defer span.End()

	if err := c.limiter.wait(ctx, op); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rate limit wait")
		return fmt.Errorf("httpclient: %s: %w", op, err)
	}

	token, err := c.issuer.issue()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("httpclient: %s: %w", op, errWrap(apperr.ErrTransport, err))
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("httpclient: %s: encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("httpclient: %s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return fmt.Errorf("httpclient: %s: %w", op, errWrap(apperr.ErrTransport, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("httpclient: %s: server status %d: %w", op, resp.StatusCode, apperr.ErrTransport)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("httpclient: %s: decode response: %w", op, errWrap(apperr.ErrTransport, err))
	}

	if len(envelope.Errors) > 0 {
		for _, e := range envelope.Errors {
			if e.isSchemaMismatch() {
				span.SetStatus(codes.Error, "schema mismatch")
				return &remote.SchemaMismatchError{Err: fmt.Errorf("%s", e.Message)}
			}
		}
		span.SetStatus(codes.Error, "graphql error")
		return fmt.Errorf("httpclient: %s: %s: %w", op, envelope.Errors[0].Message, apperr.ErrTransport)
	}

	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("httpclient: %s: unmarshal data: %w", op, err)
	}
	return nil
}

func errWrap(sentinel, cause error) error {
	return fmt.Errorf("%w: %v", sentinel, cause)
}

const feedbackItemFields = `id itemId accountId scorecardId scoreId cacheKey initialAnswerValue finalAnswerValue initialCommentValue finalCommentValue editCommentValue createdAt updatedAt editedAt editorName isAgreement`
const itemFields = `id accountId externalId evaluationId text metadata attachedFiles identifiers { name value url } identifiers_legacy { name id url } isEvaluation createdByType`

func (c *Client) ListFeedbackByIndex(ctx context.Context, p remote.ListFeedbackParams) (remote.FeedbackPage, error) {
	itemFragment := ""
	if p.WithItem {
		itemFragment = "item { " + itemFields + " }"
	}
	query := fmt.Sprintf(`query ListFeedbackByIndex($accountId: String!, $scorecardId: String!, $scoreId: String!, $start: String!, $end: String!, $limit: Int, $nextToken: String) {
		listFeedbackItemByScoreIdAndUpdatedAt(accountId: $accountId, scorecardId: $scorecardId, scoreId: $scoreId, updatedAt: {between: [$start, $end]}, sortDirection: DESC, limit: $limit, nextToken: $nextToken) {
			items { %s %s }
			nextToken
		}
	}`, feedbackItemFields, itemFragment)

	vars := map[string]any{
		"accountId":   p.AccountID,
		"scorecardId": p.ScorecardID,
		"scoreId":     p.ScoreID,
		"start":       p.Range.Start.Format(time.RFC3339),
		"end":         p.Range.End.Format(time.RFC3339),
		"limit":       pageSizeOrDefault(p.PageSize, 100),
	}
	if p.NextToken != nil {
		vars["nextToken"] = *p.NextToken
	}

	var resp struct {
		Result struct {
			Items     []wireFeedbackItem `json:"items"`
			NextToken *string            `json:"nextToken"`
		} `json:"listFeedbackItemByScoreIdAndUpdatedAt"`
	}
	if err := c.execute(ctx, "ListFeedbackByIndex", query, vars, &resp); err != nil {
		return remote.FeedbackPage{}, err
	}
	return remote.FeedbackPage{Items: toModelFeedbackItems(resp.Result.Items), NextToken: resp.Result.NextToken}, nil
}

func (c *Client) ListFeedbackFallback(ctx context.Context, p remote.ListFeedbackParams) (remote.FeedbackPage, error) {
	itemFragment := ""
	if p.WithItem {
		itemFragment = "item { " + itemFields + " }"
	}
	query := fmt.Sprintf(`query ListFeedbackFallback($accountId: String!, $scorecardId: String, $scoreId: String, $start: String!, $limit: Int, $nextToken: String) {
		listFeedbackItemByAccountIdAndUpdatedAt(accountId: $accountId, updatedAt: {ge: $start}, filter: {scorecardId: {eq: $scorecardId}, scoreId: {eq: $scoreId}}, limit: $limit, nextToken: $nextToken) {
			items { %s %s }
			nextToken
		}
	}`, feedbackItemFields, itemFragment)

	vars := map[string]any{
		"accountId": p.AccountID,
		"start":     p.Range.Start.Format(time.RFC3339),
		"limit":     pageSizeOrDefault(p.PageSize, 1000),
	}
	if p.ScorecardID != "" {
		vars["scorecardId"] = p.ScorecardID
	}
	if p.ScoreID != "" {
		vars["scoreId"] = p.ScoreID
	}
	if p.NextToken != nil {
		vars["nextToken"] = *p.NextToken
	}

	var resp struct {
		Result struct {
			Items     []wireFeedbackItem `json:"items"`
			NextToken *string            `json:"nextToken"`
		} `json:"listFeedbackItemByAccountIdAndUpdatedAt"`
	}
	if err := c.execute(ctx, "ListFeedbackFallback", query, vars, &resp); err != nil {
		return remote.FeedbackPage{}, err
	}
	return remote.FeedbackPage{Items: toModelFeedbackItems(resp.Result.Items), NextToken: resp.Result.NextToken}, nil
}

func (c *Client) GetFeedbackItem(ctx context.Context, accountID, id string) (model.FeedbackItem, error) {
	query := fmt.Sprintf(`query GetFeedbackItem($accountId: String!, $id: String!) {
		getFeedbackItem(accountId: $accountId, id: $id) { %s item { %s } }
	}`, feedbackItemFields, itemFields)
	var resp struct {
		Result *wireFeedbackItem `json:"getFeedbackItem"`
	}
	if err := c.execute(ctx, "GetFeedbackItem", query, map[string]any{"accountId": accountID, "id": id}, &resp); err != nil {
		return model.FeedbackItem{}, err
	}
	if resp.Result == nil {
		return model.FeedbackItem{}, fmt.Errorf("httpclient: GetFeedbackItem: %w", apperr.ErrNotFound)
	}
	return resp.Result.toModel(), nil
}

func (c *Client) ListScoreResultsByIndex(ctx context.Context, p remote.ListScoreResultParams) (remote.ScoreResultPage, error) {
	query := `query ListScoreResultsByIndex($accountId: String!, $scorecardId: String, $scoreId: String, $start: String!, $end: String!, $limit: Int, $nextToken: String) {
		listScoreResultByScoreIdAndUpdatedAt(accountId: $accountId, scorecardId: $scorecardId, scoreId: $scoreId, updatedAt: {between: [$start, $end]}, limit: $limit, nextToken: $nextToken) {
			items { id itemId accountId scorecardId scoreId scoreName updatedAt cost metadata }
			nextToken
		}
	}`
	vars := map[string]any{
		"accountId": p.AccountID,
		"start":     p.Range.Start.Format(time.RFC3339),
		"end":       p.Range.End.Format(time.RFC3339),
		"limit":     pageSizeOrDefault(p.PageSize, 1000),
	}
	if p.ScorecardID != "" {
		vars["scorecardId"] = p.ScorecardID
	}
	if p.ScoreID != "" {
		vars["scoreId"] = p.ScoreID
	}
	if p.NextToken != nil {
		vars["nextToken"] = *p.NextToken
	}
	var resp struct {
		Result struct {
			Items     []wireScoreResult `json:"items"`
			NextToken *string           `json:"nextToken"`
		} `json:"listScoreResultByScoreIdAndUpdatedAt"`
	}
	if err := c.execute(ctx, "ListScoreResultsByIndex", query, vars, &resp); err != nil {
		return remote.ScoreResultPage{}, err
	}
	out := make([]model.ScoreResult, 0, len(resp.Result.Items))
	for _, it := range resp.Result.Items {
		out = append(out, it.toModel())
	}
	return remote.ScoreResultPage{Items: out, NextToken: resp.Result.NextToken}, nil
}

func (c *Client) LookupIdentifier(ctx context.Context, accountID, value string) (*model.Identifier, error) {
	query := `query LookupIdentifier($accountId: String!, $value: String!) {
		listIdentifierByAccountIdAndValue(accountId: $accountId, value: $value, limit: 1) { items { itemId accountId name value url position } }
	}`
	var resp struct {
		Result struct {
			Items []wireIdentifier `json:"items"`
		} `json:"listIdentifierByAccountIdAndValue"`
	}
	if err := c.execute(ctx, "LookupIdentifier", query, map[string]any{"accountId": accountID, "value": value}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Result.Items) == 0 {
		return nil, nil
	}
	m := resp.Result.Items[0].toModel()
	return &m, nil
}

func (c *Client) GetItem(ctx context.Context, accountID, itemID string) (model.Item, error) {
	query := fmt.Sprintf(`query GetItem($accountId: String!, $id: String!) { getItem(accountId: $accountId, id: $id) { %s } }`, itemFields)
	var resp struct {
		Result *wireItem `json:"getItem"`
	}
	if err := c.execute(ctx, "GetItem", query, map[string]any{"accountId": accountID, "id": itemID}, &resp); err != nil {
		return model.Item{}, err
	}
	if resp.Result == nil {
		return model.Item{}, fmt.Errorf("httpclient: GetItem: %w", apperr.ErrNotFound)
	}
	return resp.Result.toModel(), nil
}

func (c *Client) CreateItem(ctx context.Context, item model.Item) (model.Item, error) {
	query := fmt.Sprintf(`mutation CreateItem($input: CreateItemInput!) { createItem(input: $input) { %s } }`, itemFields)
	var resp struct {
		Result wireItem `json:"createItem"`
	}
	if err := c.execute(ctx, "CreateItem", query, map[string]any{"input": fromModelItem(item)}, &resp); err != nil {
		return model.Item{}, err
	}
	return resp.Result.toModel(), nil
}

func (c *Client) UpdateItem(ctx context.Context, item model.Item) (model.Item, error) {
	query := fmt.Sprintf(`mutation UpdateItem($input: UpdateItemInput!) { updateItem(input: $input) { %s } }`, itemFields)
	var resp struct {
		Result wireItem `json:"updateItem"`
	}
	if err := c.execute(ctx, "UpdateItem", query, map[string]any{"input": fromModelItem(item)}, &resp); err != nil {
		return model.Item{}, err
	}
	return resp.Result.toModel(), nil
}

func (c *Client) CreateIdentifier(ctx context.Context, ident model.Identifier) error {
	query := `mutation CreateIdentifier($input: CreateIdentifierInput!) { createIdentifier(input: $input) { itemId } }`
	return c.execute(ctx, "CreateIdentifier", query, map[string]any{"input": fromModelIdentifier(ident)}, nil)
}

func (c *Client) LookupItemByExternalID(ctx context.Context, accountID, externalID string) (*model.Item, error) {
	query := fmt.Sprintf(`query LookupItemByExternalID($accountId: String!, $externalId: String!) {
		listItemByAccountIdAndExternalId(accountId: $accountId, externalId: $externalId, limit: 1) { items { %s } }
	}`, itemFields)
	var resp struct {
		Result struct {
			Items []wireItem `json:"items"`
		} `json:"listItemByAccountIdAndExternalId"`
	}
	if err := c.execute(ctx, "LookupItemByExternalID", query, map[string]any{"accountId": accountID, "externalId": externalID}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Result.Items) == 0 {
		return nil, nil
	}
	m := resp.Result.Items[0].toModel()
	return &m, nil
}

const scorecardFields = `id accountId externalId key name sections { id name order scores { id externalId key name championVersionId } }`

func (c *Client) GetScorecard(ctx context.Context, accountID, id string) (model.Scorecard, error) {
	query := fmt.Sprintf(`query GetScorecard($accountId: String!, $id: String!) { getScorecard(accountId: $accountId, id: $id) { %s } }`, scorecardFields)
	var resp struct {
		Result *wireScorecard `json:"getScorecard"`
	}
	if err := c.execute(ctx, "GetScorecard", query, map[string]any{"accountId": accountID, "id": id}, &resp); err != nil {
		return model.Scorecard{}, err
	}
	if resp.Result == nil {
		return model.Scorecard{}, fmt.Errorf("httpclient: GetScorecard: %w", apperr.ErrNotFound)
	}
	return resp.Result.toModel(), nil
}

func (c *Client) ListScorecardsByExternalID(ctx context.Context, accountID, externalID string) ([]model.Scorecard, error) {
	query := fmt.Sprintf(`query ListScorecardsByExternalID($accountId: String!, $externalId: String!) {
		listScorecardByAccountIdAndExternalId(accountId: $accountId, externalId: $externalId) { items { %s } }
	}`, scorecardFields)
	return c.listScorecards(ctx, "ListScorecardsByExternalID", query, map[string]any{"accountId": accountID, "externalId": externalID}, "listScorecardByAccountIdAndExternalId")
}

func (c *Client) ListScorecardsByKey(ctx context.Context, accountID, key string) ([]model.Scorecard, error) {
	query := fmt.Sprintf(`query ListScorecardsByKey($accountId: String!, $key: String!) {
		listScorecardByAccountIdAndKey(accountId: $accountId, key: $key) { items { %s } }
	}`, scorecardFields)
	return c.listScorecards(ctx, "ListScorecardsByKey", query, map[string]any{"accountId": accountID, "key": key}, "listScorecardByAccountIdAndKey")
}

func (c *Client) ListScorecardsByNameMatch(ctx context.Context, accountID, name string) ([]model.Scorecard, error) {
	query := fmt.Sprintf(`query ListScorecardsByName($accountId: String!, $name: String!) {
		listScorecardByAccountIdAndName(accountId: $accountId, name: {contains: $name}) { items { %s } }
	}`, scorecardFields)
	return c.listScorecards(ctx, "ListScorecardsByNameMatch", query, map[string]any{"accountId": accountID, "name": name}, "listScorecardByAccountIdAndName")
}

func (c *Client) ListAllScorecards(ctx context.Context, accountID string) ([]model.Scorecard, error) {
	query := fmt.Sprintf(`query ListAllScorecards($accountId: String!) {
		listScorecardByAccountId(accountId: $accountId) { items { %s } }
	}`, scorecardFields)
	return c.listScorecards(ctx, "ListAllScorecards", query, map[string]any{"accountId": accountID}, "listScorecardByAccountId")
}

func (c *Client) listScorecards(ctx context.Context, op, query string, vars map[string]any, field string) ([]model.Scorecard, error) {
	var resp map[string]struct {
		Items []wireScorecard `json:"items"`
	}
	if err := c.execute(ctx, op, query, vars, &resp); err != nil {
		return nil, err
	}
	entry := resp[field]
	out := make([]model.Scorecard, 0, len(entry.Items))
	for _, sc := range entry.Items {
		out = append(out, sc.toModel())
	}
	return out, nil
}

func toModelFeedbackItems(items []wireFeedbackItem) []model.FeedbackItem {
	out := make([]model.FeedbackItem, 0, len(items))
	for _, it := range items {
		out = append(out, it.toModel())
	}
	return out
}

func pageSizeOrDefault(size, def int) int {
	if size <= 0 {
		return def
	}
	return size
}

var _ remote.Client = (*Client)(nil)
