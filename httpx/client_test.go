package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type HTTPClientTestSuite struct {
	suite.Suite
	testServer *httptest.Server
	client     *Client
}

func TestHTTPClientTestSuite(t *testing.T) {
	suite.Run(t, new(HTTPClientTestSuite))
}

func (s *HTTPClientTestSuite) SetupSuite() {
	s.testServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for key, values := range r.URL.Query() {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}
		w.Header().Set("X-Echo-Token", r.Header.Get(TokenHeaderKey))

		if r.Method == http.MethodPost {
			body, _ := io.ReadAll(r.Body)
			w.Write(body)
			return
		}

		fmt.Fprint(w, "test server")
	}))

	s.client = NewHTTPClient()
}

func (s *HTTPClientTestSuite) TearDownSuite() {
	s.client.CloseIdleConnections()
	s.testServer.Close()
}

func (s *HTTPClientTestSuite) TestMakeHTTPRequest_InvalidRequest() {
	ctx := context.Background()

	_, err := s.client.MakeHTTPRequest(ctx, &Request{
		URL: s.testServer.URL,
	})

	s.Assert().Error(err)
}

func (s *HTTPClientTestSuite) TestMakeHTTPRequest_SuccessfulHTTPRequest() {
	ctx := context.Background()

	request := &Request{
		Method: http.MethodGet,
		URL:    s.testServer.URL,
		QueryParameters: map[string][]string{
			"test": {"test1", "test2"},
		},
	}

	response, err := s.client.MakeHTTPRequest(ctx, request)
	if err != nil {
		s.FailNow("unable to make http request to the test server: ", err)
		return
	}

	s.Assert().Equal(http.StatusOK, response.StatusCode)
	s.Assert().Equal("test server", string(response.Body))
	s.Assert().Equal(request.QueryParameters["test"], response.Headers.Values("test"))
}

func (s *HTTPClientTestSuite) TestMakeHTTPRequest_RawBody() {
	response, err := s.client.MakeHTTPRequest(context.Background(), &Request{
		Method:  http.MethodPost,
		URL:     s.testServer.URL,
		Body:    []byte(`{"insertOne":{"document":{"_id":"1"}}}`),
		Headers: NewJSONHeaders("secret", ""),
	})
	s.Require().NoError(err)

	s.Assert().JSONEq(`{"insertOne":{"document":{"_id":"1"}}}`, string(response.Body))
	s.Assert().Equal("secret", response.Headers.Get("X-Echo-Token"))
}

func (s *HTTPClientTestSuite) TestMakeHTTPRequest_JSONBody() {
	response, err := s.client.MakeHTTPRequest(context.Background(), &Request{
		Method: http.MethodPost,
		URL:    s.testServer.URL,
		Body:   map[string]any{"findOne": map[string]any{}},
	})
	s.Require().NoError(err)

	s.Assert().JSONEq(`{"findOne":{}}`, string(response.Body))
	s.Assert().True(response.IsSuccess())
}

func (s *HTTPClientTestSuite) TestMakeHTTPRequest_UnencodableBody() {
	_, err := s.client.MakeHTTPRequest(context.Background(), &Request{
		Method: http.MethodPost,
		URL:    s.testServer.URL,
		Body:   map[string]any{"bad": make(chan int)},
	})
	s.Assert().Error(err)
}

func (s *HTTPClientTestSuite) TestMakeHTTPRequest_Traced() {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	client := NewClientWithOptions(WithTracerProvider(tp))
	defer client.CloseIdleConnections()

	response, err := client.MakeHTTPRequest(context.Background(), &Request{
		Method:  http.MethodPost,
		URL:     s.testServer.URL,
		Body:    []byte(`{"findOne":{}}`),
		Headers: NewJSONHeaders("secret", ""),
	})
	s.Require().NoError(err)
	s.Require().True(response.IsSuccess())

	names := lo.Map(sr.Ended(), func(span sdktrace.ReadOnlySpan, _ int) string { return span.Name() })
	s.Contains(names, "http.getconn")
	for _, span := range sr.Ended() {
		for _, kv := range span.Attributes() {
			s.NotEqual("secret", kv.Value.AsString(), "span %s leaks the token", span.Name())
		}
	}
}
