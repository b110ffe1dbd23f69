package dynamo

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/stretchr/testify/require"
)

// dynamoCall is one request received by the fake endpoint.
type dynamoCall struct {
	Op   string
	Body map[string]any
}

type respondFunc func(op string, body map[string]any) (int, string)

// fakeDynamo speaks just enough of the DynamoDB JSON protocol to record
// requests and replay canned responses.
type fakeDynamo struct {
	mu      sync.Mutex
	calls   []dynamoCall
	respond respondFunc
}

func newFakeDynamo(t *testing.T, respond respondFunc) (*dynamodb.Client, *fakeDynamo) {
	t.Helper()
	f := &fakeDynamo{respond: respond}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	client := dynamodb.New(dynamodb.Options{
		Region:           "us-east-1",
		BaseEndpoint:     aws.String(srv.URL),
		Credentials:      credentials.NewStaticCredentialsProvider("test", "test", ""),
		RetryMaxAttempts: 1,
	})
	return client, f
}

func (f *fakeDynamo) serve(w http.ResponseWriter, r *http.Request) {
	op := strings.TrimPrefix(r.Header.Get("X-Amz-Target"), "DynamoDB_20120810.")
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.calls = append(f.calls, dynamoCall{Op: op, Body: body})
	f.mu.Unlock()

	status, resp := f.respond(op, body)
	w.Header().Set("Content-Type", "application/x-amz-json-1.0")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, resp)
}

// callsTo returns the recorded requests for op, in order.
func (f *fakeDynamo) callsTo(op string) []dynamoCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dynamoCall
	for _, c := range f.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func awsError(typ, msg string) (int, string) {
	return http.StatusBadRequest, fmt.Sprintf(`{"__type":"com.amazonaws.dynamodb.v20120810#%s","message":%q}`, typ, msg)
}

func conditionFailed() (int, string) {
	return awsError("ConditionalCheckFailedException", "The conditional request failed")
}

// canceled builds a TransactionCanceledException with one reason per transaction item.
func canceled(codes ...string) (int, string) {
	reasons := make([]string, len(codes))
	for i, c := range codes {
		reasons[i] = fmt.Sprintf(`{"Code":%q}`, c)
	}
	return http.StatusBadRequest, fmt.Sprintf(
		`{"__type":"com.amazonaws.dynamodb.v20120810#TransactionCanceledException","Message":"Transaction cancelled","CancellationReasons":[%s]}`,
		strings.Join(reasons, ","),
	)
}

// dig walks a decoded JSON value by map keys and slice indexes.
func dig(t *testing.T, v any, path ...any) any {
	t.Helper()
	for _, p := range path {
		switch k := p.(type) {
		case string:
			m, ok := v.(map[string]any)
			require.Truef(t, ok, "expected object at %v", k)
			v = m[k]
		case int:
			s, ok := v.([]any)
			require.Truef(t, ok, "expected array at %d", k)
			require.Less(t, k, len(s))
			v = s[k]
		}
	}
	return v
}
