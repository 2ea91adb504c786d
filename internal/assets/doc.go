// Package assets provides the stylesheet, document template and generated
// static files shared by every page of a site.
//
// # Loaders
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - styles and templates compiled into the binary
//	    ├── FilesystemLoader  - a user directory (assets.basePath)
//	    └── AssetResolver     - user directory first, embedded fallback
//
// A user directory only needs the files it overrides:
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css           # page stylesheet, written as styles.css
//	└── templates/
//	    └── document.html        # html/template wrapping every page
//
// # Generated files
//
// HighlightCSS renders the chroma style used for code blocks into
// highlight.css. CopyKatex mirrors a KaTeX distribution so math markup
// produced by the pipeline renders client side.
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
