package httputil_test

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/canvasnote/canvasnote/pkg/httputil"
)

func ExampleCache() {
	dir := filepath.Join(os.TempDir(), "canvasnote-example")
	cache, err := httputil.NewCache(dir, 24*time.Hour)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	// Cache a directory listing response.
	data := map[string]string{"path": "notebooks", "entries": "3"}
	if err := cache.Set("listing:notebooks", data); err != nil {
		fmt.Println("Error:", err)
		return
	}

	var result map[string]string
	if ok, err := cache.Get("listing:notebooks", &result); ok && err == nil {
		fmt.Println("Path:", result["path"])
		fmt.Println("Entries:", result["entries"])
	}

	os.RemoveAll(dir)
	// Output:
	// Path: notebooks
	// Entries: 3
}

func ExampleCache_miss() {
	dir := filepath.Join(os.TempDir(), "canvasnote-example-miss")
	cache, _ := httputil.NewCache(dir, time.Hour)
	defer os.RemoveAll(dir)

	var result string
	ok, err := cache.Get("nonexistent", &result)
	fmt.Println("Found:", ok)
	fmt.Println("Error:", err)
	// Output:
	// Found: false
	// Error: <nil>
}
