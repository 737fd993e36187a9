package llm_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/vireo/internal/adapters/llm"
	"github.com/okian/vireo/internal/domain/model"
)

func TestNew(t *testing.T) {
	convey.Convey("Given client construction", t, func() {
		convey.Convey("When the API key is empty", func() {
			_, err := llm.New("")
			convey.So(errors.Is(err, model.ErrInvalidArgument), convey.ShouldBeTrue)
		})

		convey.Convey("When the API key is set", func() {
			c, err := llm.New("key")
			convey.So(err, convey.ShouldBeNil)
			convey.So(c, convey.ShouldNotBeNil)
		})
	})
}

func TestComplete(t *testing.T) {
	convey.Convey("Given a messages API double", t, func() {
		var gotBody map[string]any
		var gotKey, gotVersion string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get("x-api-key")
			gotVersion = r.Header.Get("anthropic-version")
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &gotBody)
			_, _ = w.Write([]byte(`{"content":[
				{"type":"text","text":"first "},
				{"type":"tool_use","text":"ignored"},
				{"type":"text","text":"second"}
			]}`))
		}))
		defer srv.Close()

		client, err := llm.New("secret",
			llm.WithEndpoint(srv.URL),
			llm.WithModel("test-model"),
			llm.WithRateLimit(1000, 10),
		)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When completing a prompt", func() {
			text, err := client.Complete(context.Background(), "system text", "user prompt")

			convey.Convey("Then text blocks concatenate in order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(text, convey.ShouldEqual, "first second")
			})

			convey.Convey("Then auth headers and a deterministic request travel upstream", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(gotKey, convey.ShouldEqual, "secret")
				convey.So(gotVersion, convey.ShouldEqual, "2023-06-01")
				convey.So(gotBody["model"], convey.ShouldEqual, "test-model")
				convey.So(gotBody["temperature"], convey.ShouldEqual, 0)
				convey.So(gotBody["system"], convey.ShouldEqual, "system text")
			})
		})
	})

	convey.Convey("Given a backend returning errors", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client, err := llm.New("secret",
			llm.WithEndpoint(srv.URL),
			llm.WithRateLimit(1000, 10),
		)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When completing", func() {
			_, err := client.Complete(context.Background(), "s", "p")

			convey.Convey("Then a service error surfaces with the status", func() {
				convey.So(errors.Is(err, llm.ErrService), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "503")
			})
		})

		convey.Convey("When failures repeat", func() {
			for i := 0; i < 3; i++ {
				_, _ = client.Complete(context.Background(), "s", "p")
			}
			_, err := client.Complete(context.Background(), "s", "p")

			convey.Convey("Then the circuit breaker fails fast", func() {
				convey.So(errors.Is(err, llm.ErrService), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "circuit breaker is open")
			})
		})
	})

	convey.Convey("Given a backend returning empty content", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"content":[]}`))
		}))
		defer srv.Close()

		client, err := llm.New("secret",
			llm.WithEndpoint(srv.URL),
			llm.WithRateLimit(1000, 10),
		)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When completing", func() {
			_, err := client.Complete(context.Background(), "s", "p")
			convey.So(errors.Is(err, llm.ErrService), convey.ShouldBeTrue)
		})
	})
}
