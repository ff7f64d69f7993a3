package browser

import "errors"

var (
	// ErrNoInstances indicates browser mode is enabled without instances.
	ErrNoInstances = errors.New("browser: at least one instance is required")
	// ErrInstanceBrowserRequired indicates an instance without a browser name.
	ErrInstanceBrowserRequired = errors.New("browser: instance browser is required")
	// ErrDuplicateInstance indicates two instances share a name.
	ErrDuplicateInstance = errors.New("browser: instance names must be unique")
	// ErrUnknownProvider indicates a provider outside the known set.
	ErrUnknownProvider = errors.New("browser: unknown provider")
	// ErrUnsupportedBrowser indicates a browser the provider cannot drive.
	ErrUnsupportedBrowser = errors.New("browser: unsupported browser")
	// ErrHeadlessUnsupported indicates headless was requested from a provider
	// that always shows a window.
	ErrHeadlessUnsupported = errors.New("browser: provider does not support headless mode")
	// ErrInstanceNotFound indicates Explain was asked about an unknown instance.
	ErrInstanceNotFound = errors.New("browser: instance not found")
	// ErrHeadlessRule indicates the headless default rule failed or did not
	// produce a boolean.
	ErrHeadlessRule = errors.New("browser: headless rule")
	// ErrLayerSource indicates a persisted scope snapshot could not be read.
	ErrLayerSource = errors.New("browser: layer source")
)
