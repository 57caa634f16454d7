package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"
)

// PrintRoutes walks through all routes registered in the router and
// prints them to stdout.
func PrintRoutes(r *mux.Router) {
	fmt.Println("\n=== Registered Routes ===")
	writeRoutes(os.Stdout, r)
	fmt.Println("==============================")
}

// PrintRoutesHandler returns a handler function that lists all
// registered routes, useful as an admin debugging endpoint.
func PrintRoutesHandler(router *mux.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")

		fmt.Fprintln(w, "=== Registered Routes ===")
		writeRoutes(w, router)
		fmt.Fprintln(w, "==============================")
	}
}

func writeRoutes(w io.Writer, r *mux.Router) {
	fmt.Fprintln(w, "METHOD\tPATH")
	fmt.Fprintln(w, "-------------------------------")

	_ = r.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			pathTemplate = "<unknown>"
		}

		// If no methods are specified, assume all methods
		methods, err := route.GetMethods()
		methodStr := "ANY"
		if err == nil && len(methods) > 0 {
			methodStr = strings.Join(methods, ",")
		}

		fmt.Fprintf(w, "%s\t%s\n", methodStr, pathTemplate)
		return nil
	})
}
