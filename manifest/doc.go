// Package manifest loads a declarative package description (YAML or JSON)
// and resolves it into a frozen config.PackageConfig.
//
// Fields may reference the defines map through Go templates
// (`{{.target_dir}}`, `{{.pkg_name}}`, ...); defines are resolved in
// dependency order before being exposed to the rest of the document, using
// the engine in template.go.
package manifest
