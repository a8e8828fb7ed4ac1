// Package packages implements the dependency detector (spec.md C2): it
// scans generated source for import statements and reports the external
// packages a workspace install step must fetch.
//
// Grounded on original_source/backend/app/libs/package_detector.py; the
// mapping tables below are carried over verbatim since they encode
// package-naming facts (PyPI/npm names) rather than behavior to adapt.
package packages

// PythonPackageMapping maps an import name to the PyPI package that
// provides it, for the cases where the two differ.
var PythonPackageMapping = map[string]string{
	"cv2":      "opencv-python",
	"PIL":      "Pillow",
	"sklearn":  "scikit-learn",
	"yaml":     "pyyaml",
	"dotenv":   "python-dotenv",
	"dateutil": "python-dateutil",
	"jwt":      "pyjwt",
	"bs4":      "beautifulsoup4",
	"psycopg2": "psycopg2-binary",
}

// PythonStdlib lists standard-library modules that must never be queued
// for installation.
var PythonStdlib = stringSet(
	"abc", "asyncio", "collections", "datetime", "decimal", "enum", "functools",
	"hashlib", "itertools", "json", "logging", "math", "os", "pathlib", "re",
	"sys", "time", "typing", "uuid", "warnings", "io", "copy", "traceback",
	"dataclasses", "base64", "hmac", "secrets", "string", "random", "tempfile",
	"shutil", "subprocess", "urllib", "http", "email", "mimetypes", "platform",
	"contextlib", "inspect", "dis", "gc", "weakref", "operator", "types",
)

// NodeBuiltins lists Node.js built-in modules that must never be queued
// for installation.
var NodeBuiltins = stringSet(
	"assert", "buffer", "child_process", "cluster", "crypto", "dgram", "dns",
	"domain", "events", "fs", "http", "https", "net", "os", "path", "punycode",
	"querystring", "readline", "repl", "stream", "string_decoder", "timers",
	"tls", "tty", "url", "util", "v8", "vm", "zlib",
)

// FrameworkPythonPackages are backend-framework modules the generated
// workspace already provides and that should never be queued.
var FrameworkPythonPackages = stringSet(
	"app",
	"appgen",
	"fastapi",
	"pydantic",
	"asyncpg",
)

// FrameworkUIPackages are frontend packages and path aliases the
// generated workspace already provides.
var FrameworkUIPackages = stringSet(
	"react",
	"react-dom",
	"react-router-dom",
	"@/components/ui",
	"@/hooks",
	"app",
	"types",
	"components",
	"utils",
)

func stringSet(items ...string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, it := range items {
		s[it] = true
	}
	return s
}
