// Package config provides configuration management for the flowbuilder
// command and editor sessions.
//
// # Core Components
//
// Config: layout constants, editor timeouts and retry budget, the optional
// catalog path, and logging settings.
//
// Loader: loads configuration with layer merging (defaults, then each file,
// then environment variables). Files may be JSON or YAML.
//
// # Basic Usage
//
//	loader := config.NewLoader()
//	loader.AddLayer("flowbuilder.yaml")
//	loader.AddLayer("flowbuilder.local.yaml") // Overrides the first layer
//
//	cfg, err := loader.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Environment Overrides
//
// Applied after every file layer:
//
//	FLOWBUILDER_LOG_LEVEL            debug | info | warn | error
//	FLOWBUILDER_LOG_FORMAT           json | text
//	FLOWBUILDER_CATALOG_PATH         path to a YAML or JSON node type catalog
//	FLOWBUILDER_LAYOUT_STRATEGY      lane | layered
//	FLOWBUILDER_EDITOR_IDS           sequential | uuid
//	FLOWBUILDER_EDITOR_AUTO_ARRANGE  true | false
//	FLOWBUILDER_EDITOR_TEST_TIMEOUT  duration, e.g. 5s
//	FLOWBUILDER_EDITOR_SAVE_TIMEOUT  duration, e.g. 10s
//	FLOWBUILDER_EDITOR_RETRY_ATTEMPTS
//
// # Durations
//
// Duration fields accept Go duration strings ("250ms", "5s"), a day suffix
// ("2d"), or integer nanoseconds.
//
// # Validation
//
// Validation is enabled by default and uses go-playground/validator struct
// tags. Failures are invalid-class errors wrapping ErrInvalidConfig.
package config
