// Package docs describes sizekit, a runtime size token generator.
//
// sizekit turns a base size in pixels and a set of per-category scale
// factors into CSS custom properties (--size-font-md, --size-spacing-lg,
// ...), keeps the active preset in a persistent store and previews
// breakpoint behaviour in the browser.
//
// # Quick Start
//
//	// Print the stylesheet for a preset
//	sizekit generate --preset compact
//
//	// Write the stylesheet and an html document
//	sizekit generate -o dist/tokens.css --html dist/index.html
//
//	// Select a preset and persist the choice
//	sizekit presets apply large
//
//	// Show which breakpoints match a viewport width
//	sizekit breakpoint 800
//
//	// Start the live preview server
//	sizekit serve
//
// # Architecture
//
//   - CLI Commands (cmd/): Cobra based command interface
//   - Scales (internal/scale/): Size steps and category multipliers
//   - Tokens (internal/tokens/): Stylesheet generation with a bounded cache
//   - Presets (internal/preset/): Named configurations and validation
//   - Size Manager (internal/manager/): Active configuration, persistence and change notification
//   - Storage (internal/store/): Memory, file and sqlite state stores
//   - Style Targets (internal/style/): Where generated stylesheets are written
//   - Responsive (internal/responsive/): Breakpoint matching for viewports and containers
//   - Preview Server (internal/server/): HTTP API and websocket live updates
//   - File Watcher (internal/watcher/): Presets file reloading
//   - Configuration (internal/config/): Viper based configuration
//
// # Configuration
//
// sizekit reads configuration from, highest priority first:
//
//   - Command-line flags
//   - Environment variables (SIZEKIT_*)
//   - Configuration file (.sizekit.yml)
//
// Example configuration:
//
//	tokens:
//	  default_preset: comfortable
//	  cache_limit: 20
//	  debounce_delay: 100ms
//
//	presets:
//	  - name: kiosk
//	    base_size: 24
//	    overrides:
//	      spacing: 1.5
//
//	storage:
//	  driver: sqlite
//	  path: .sizekit/state.db
//
//	server:
//	  port: 8080
//	  allowed_origins:
//	    - "https://app.example.com"
//
// For more information, see the individual package documentation.
package docs
