package httpapi

import (
	"net/http"
	"strings"
)

// RouterConfig wires handlers and middleware into the router.
type RouterConfig struct {
	Bookings   *BookingHandler
	Calendar   *CalendarHandler
	Resources  *ResourceHandler
	Middleware []func(http.Handler) http.Handler
}

// NewRouter builds the HTTP route table.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Bookings != nil {
		mux.HandleFunc("/bookings", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Bookings.List(w, r)
			case http.MethodPost:
				cfg.Bookings.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/bookings/", func(w http.ResponseWriter, r *http.Request) {
			parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/bookings/"), "/")
			if parts[0] == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithReservationID(r.Context(), parts[0]))

			switch {
			case len(parts) == 1:
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Bookings.Get(w, r)
			case len(parts) == 2 && parts[1] == "calendar.ics":
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Bookings.ExportICS(w, r)
			case len(parts) == 2 && (parts[1] == "approve" || parts[1] == "deny" || parts[1] == "cancel"):
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Bookings.Transition(w, r, parts[1])
			default:
				http.NotFound(w, r)
			}
		})
		mux.HandleFunc("/conflicts", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Bookings.Conflicts(w, r)
		})
	}

	if cfg.Resources != nil {
		mux.HandleFunc("/resources", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Resources.List(w, r)
			case http.MethodPost:
				cfg.Resources.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/resources/", func(w http.ResponseWriter, r *http.Request) {
			parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/resources/"), "/")
			if parts[0] == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), parts[0]))

			switch {
			case len(parts) == 1:
				switch r.Method {
				case http.MethodGet:
					cfg.Resources.Get(w, r)
				case http.MethodPut:
					cfg.Resources.Update(w, r)
				case http.MethodDelete:
					cfg.Resources.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case len(parts) == 3 && parts[1] == "calendar" && cfg.Calendar != nil:
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				switch parts[2] {
				case "day":
					cfg.Calendar.Day(w, r)
				case "month":
					cfg.Calendar.Month(w, r)
				default:
					http.NotFound(w, r)
				}
			default:
				http.NotFound(w, r)
			}
		})
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
