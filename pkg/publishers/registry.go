package publishers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Adda-Baaj/portco-news/internal/domain"
	"github.com/Adda-Baaj/portco-news/internal/logger"
)

// Builder creates a Publisher from a config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error)

// Registry maps publisher types to builders.
type Registry interface {
	Register(typ string, builder Builder)
	PublisherFor(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error)
}

type registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns a registry with optional pre-registered builders.
func NewRegistry(builders map[string]Builder) Registry {
	r := &registry{
		builders: make(map[string]Builder),
	}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

// Register associates a builder with a publisher type.
func (r *registry) Register(typ string, builder Builder) {
	if typ = strings.TrimSpace(strings.ToLower(typ)); typ == "" || builder == nil {
		return
	}

	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
}

// PublisherFor returns the publisher built for the provided config.
func (r *registry) PublisherFor(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("publisher %q has no type configured", cfg.ID)
	}

	r.mu.RLock()
	builder := r.builders[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("no publisher registered for type %q", cfg.Type)
	}
	return builder(ctx, cfg, log)
}

// DefaultRegistry wires up known publishers.
func DefaultRegistry() Registry {
	return NewRegistry(map[string]Builder{
		TypeHTTP:  newHTTPPublisher,
		TypeQueue: newQueuePublisher,
	})
}

// Route is a built publisher together with the sources it accepts and an optional filter.
type Route struct {
	Publisher Publisher
	sources   map[string]struct{}
	filter    *domain.Filter
}

// Accepts reports whether the route wants events from source. No configured sources means all.
func (r Route) Accepts(source string) bool {
	if len(r.sources) == 0 {
		return true
	}
	_, ok := r.sources[strings.ToLower(source)]
	return ok
}

// Shape returns the event as this route should see it.
func (r Route) Shape(evt Event) Event {
	if r.filter == nil {
		return evt
	}
	return evt.Narrow(*r.filter)
}

// BuildAll instantiates routes for the enabled configs using the registry.
func BuildAll(ctx context.Context, reg Registry, cfgs []PublisherConfig, log logger.Logger) ([]Route, error) {
	if reg == nil || len(cfgs) == 0 {
		return nil, nil
	}

	if ctx == nil {
		ctx = context.Background()
	}
	log = logger.Ensure(log)

	var routes []Route
	for _, cfg := range cfgs {
		if !cfg.EnabledValue() {
			continue
		}
		pub, err := reg.PublisherFor(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		route := Route{Publisher: pub}
		if len(cfg.Sources) > 0 {
			route.sources = make(map[string]struct{}, len(cfg.Sources))
			for _, s := range cfg.Sources {
				route.sources[s] = struct{}{}
			}
		}
		if cfg.Filter != nil {
			f, err := cfg.Filter.Build()
			if err != nil {
				return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
			}
			route.filter = &f
		}
		routes = append(routes, route)
	}
	return routes, nil
}

// Dispatch hands evt to every route that accepts its source, narrowed by the route's filter. Failures are logged and joined;
// one failing publisher does not stop the others.
func Dispatch(ctx context.Context, routes []Route, evt Event, log logger.Logger) error {
	log = logger.Ensure(log)

	var errs []error
	for _, route := range routes {
		if !route.Accepts(evt.Source) {
			continue
		}
		out := route.Shape(evt)
		if err := route.Publisher.Publish(ctx, out); err != nil {
			log.WarnObj("publish failed", "publish_error", map[string]any{
				"publisher_id": route.Publisher.ID(),
				"source":       evt.Source,
				"error":        err.Error(),
			})
			errs = append(errs, fmt.Errorf("publisher %s: %w", route.Publisher.ID(), err))
			continue
		}
		log.InfoObj("fetch result published", "publish_done", map[string]any{
			"publisher_id": route.Publisher.ID(),
			"source":       evt.Source,
			"size":         out.Size(),
		})
	}
	return errors.Join(errs...)
}
