package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/halcyon-dev/angraph/frontend"
)

// ProviderInfo is the normalized form of one dependency-injection
// provider entry. Token is always set; the remaining fields depend on
// the provider shape.
type ProviderInfo struct {
	Token          string `json:"token"`
	Implementation string `json:"implementation,omitempty"`
	Value          string `json:"value,omitempty"`
	Multi          bool   `json:"multi,omitempty"`
}

// ParseProviders normalizes a providers array. Supported shapes:
//
//   - bare class reference: SomeService
//   - { provide: TOKEN, useClass: Impl }
//   - { provide: TOKEN, useExisting: Other }
//   - { provide: TOKEN, useFactory: makeThing }
//   - { provide: TOKEN, useValue: NAMED_REF }
//   - spread: ...SHARED_PROVIDERS
//
// useValue is captured only when the value is a named reference;
// literal values are dropped, the provider keeps its token. Entries
// that fit no shape are skipped.
func ParseProviders(elements []*sitter.Node, source []byte) []ProviderInfo {
	var out []ProviderInfo
	for _, el := range elements {
		if info, ok := parseProvider(el, source); ok {
			out = append(out, info)
		}
	}
	return out
}

func parseProvider(node *sitter.Node, source []byte) (ProviderInfo, bool) {
	switch node.Type() {
	case "identifier":
		name := frontend.Text(node, source)
		return ProviderInfo{Token: name, Implementation: name}, true

	case "spread_element":
		for i := 0; i < int(node.ChildCount()); i++ {
			if id := node.Child(i); id.Type() == "identifier" {
				name := frontend.Text(id, source)
				return ProviderInfo{Token: "..." + name, Implementation: name}, true
			}
		}
		return ProviderInfo{}, false

	case "object":
		return parseObjectProvider(node, source)
	}
	return ProviderInfo{}, false
}

func parseObjectProvider(object *sitter.Node, source []byte) (ProviderInfo, bool) {
	provide := frontend.ObjectProperty(object, source, "provide")
	if provide == nil {
		return ProviderInfo{}, false
	}

	info := ProviderInfo{Token: TokenName(provide, source)}
	if info.Token == "" {
		return ProviderInfo{}, false
	}

	if v := frontend.ObjectProperty(object, source, "useClass"); v != nil {
		info.Implementation = refName(v, source)
	} else if v := frontend.ObjectProperty(object, source, "useExisting"); v != nil {
		info.Implementation = refName(v, source)
	} else if v := frontend.ObjectProperty(object, source, "useFactory"); v != nil {
		info.Implementation = refName(v, source)
	} else if v := frontend.ObjectProperty(object, source, "useValue"); v != nil {
		info.Value = refName(v, source)
	}

	if m := frontend.ObjectProperty(object, source, "multi"); m != nil {
		info.Multi = frontend.Text(m, source) == "true"
	}
	return info, true
}

// TokenName extracts a display name from a provider token expression:
// a plain identifier, the property of a member access, the string
// argument of a token constructor, or the constructed type's name.
func TokenName(node *sitter.Node, source []byte) string {
	switch node.Type() {
	case "identifier", "type_identifier":
		return frontend.Text(node, source)

	case "member_expression":
		if prop := node.ChildByFieldName("property"); prop != nil {
			return frontend.Text(prop, source)
		}

	case "new_expression":
		// new InjectionToken('app.config') names the token by its
		// string argument when present, else by the constructor.
		if args := node.ChildByFieldName("arguments"); args != nil {
			for i := 0; i < int(args.ChildCount()); i++ {
				if arg := args.Child(i); arg.Type() == "string" {
					return frontend.StringContent(arg, source)
				}
			}
		}
		if ctor := node.ChildByFieldName("constructor"); ctor != nil {
			return frontend.Text(ctor, source)
		}

	case "string":
		return frontend.StringContent(node, source)
	}
	return ""
}

// refName returns the name of a value expression when it is a named
// reference, and "" for literals, arrows, and other anonymous forms.
func refName(node *sitter.Node, source []byte) string {
	switch node.Type() {
	case "identifier":
		return frontend.Text(node, source)
	case "member_expression":
		// Qualified reference: keep the full dotted path readable.
		text := frontend.Text(node, source)
		if !strings.ContainsAny(text, "({") {
			return text
		}
	}
	return ""
}
