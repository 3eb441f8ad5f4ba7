package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeChats struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     []fakeCall
}

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeCall struct {
	model    string
	config   *genai.GenerateContentConfig
	messages []string
}

type fakeChat struct {
	owner    *fakeChats
	index    int
	response fakeResponse
}

func (c *fakeChat) SendMessage(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	c.owner.mu.Lock()
	defer c.owner.mu.Unlock()
	for _, part := range parts {
		c.owner.calls[c.index].messages = append(c.owner.calls[c.index].messages, part.Text)
	}
	return c.response.resp, c.response.err
}

func (f *fakeChats) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{resp: resp, err: err})
}

func (f *fakeChats) Create(_ context.Context, model string, config *genai.GenerateContentConfig, _ []*genai.Content) (chatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.responses[0]
	f.responses = f.responses[1:]
	f.calls = append(f.calls, fakeCall{model: model, config: config})
	return &fakeChat{owner: f, index: len(f.calls) - 1, response: res}, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func noSleep(t *testing.T) {
	t.Helper()
	original := sleep
	sleep = func(time.Duration) {}
	t.Cleanup(func() { sleep = original })
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	noSleep(t)

	chats := &fakeChats{}
	chats.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	chats.enqueue(textResponse("retry ok"), nil)

	g := &Generator{chats: chats, model: "gemini-pro", maxRetries: 2, logger: zap.NewNop()}

	output, err := g.GenerateContent(context.Background(), "system", "message")
	require.NoError(t, err)
	assert.Equal(t, "retry ok", output)
	require.Len(t, chats.calls, 2)

	for _, call := range chats.calls {
		assert.Equal(t, "gemini-pro", call.model)
		require.NotNil(t, call.config.SystemInstruction)
		assert.Equal(t, "system", call.config.SystemInstruction.Parts[0].Text)
		assert.Equal(t, []string{"message"}, call.messages)
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	noSleep(t)

	chats := &fakeChats{}
	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	chats.enqueue(nil, tempErr)
	chats.enqueue(nil, tempErr)

	g := &Generator{chats: chats, model: "gemini-pro", maxRetries: 2, logger: zap.NewNop()}

	_, err := g.GenerateContent(context.Background(), "sys", "msg")
	require.Error(t, err)
	assert.Len(t, chats.calls, 2)
}

func TestGeneratorDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	chats := &fakeChats{}
	chats.enqueue(nil, genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	})

	g := &Generator{chats: chats, model: "gemini-pro", maxRetries: 3, logger: zap.NewNop()}

	_, err := g.GenerateContent(context.Background(), "sys", "msg")
	require.Error(t, err)
	assert.Len(t, chats.calls, 1)
}

func TestGeneratorDoesNotRetryClientErrors(t *testing.T) {
	chats := &fakeChats{}
	chats.enqueue(nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	g := &Generator{chats: chats, model: "gemini-pro", maxRetries: 3, logger: zap.NewNop()}

	_, err := g.GenerateContent(context.Background(), "", "msg")
	require.Error(t, err)
	assert.Len(t, chats.calls, 1)
}

func TestGeneratorRejectsEmptyInput(t *testing.T) {
	g := &Generator{chats: &fakeChats{}, model: "gemini-pro", maxRetries: 1, logger: zap.NewNop()}

	_, err := g.GenerateContent(context.Background(), "sys", "   ")
	require.Error(t, err)

	var nilGenerator *Generator
	_, err = nilGenerator.GenerateContent(context.Background(), "sys", "msg")
	require.Error(t, err)
	assert.Empty(t, nilGenerator.Model())
}

func TestGeneratorEmptyResponse(t *testing.T) {
	chats := &fakeChats{}
	chats.enqueue(textResponse("   "), nil)

	g := &Generator{chats: chats, model: "gemini-pro", maxRetries: 1, logger: zap.NewNop()}

	_, err := g.GenerateContent(context.Background(), "sys", "msg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		attempt   int
		wantDelay time.Duration
		wantRetry bool
	}{
		{
			name:      "server error backs off linearly",
			err:       genai.APIError{Code: http.StatusBadGateway},
			attempt:   2,
			wantDelay: 2 * retryBaseDelay,
			wantRetry: true,
		},
		{
			name: "quota with short retry info",
			err: genai.APIError{
				Code:    http.StatusTooManyRequests,
				Details: []map[string]any{{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "7s"}},
			},
			attempt:   1,
			wantDelay: 7 * time.Second,
			wantRetry: true,
		},
		{
			name:      "quota without delay",
			err:       genai.APIError{Code: http.StatusTooManyRequests},
			attempt:   1,
			wantDelay: retryBaseDelay,
			wantRetry: true,
		},
		{
			name:    "plain error",
			err:     errors.New("connection reset"),
			attempt: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delay, retry := retryDelay(tt.err, tt.attempt)
			assert.Equal(t, tt.wantRetry, retry)
			assert.Equal(t, tt.wantDelay, delay)
		})
	}
}
