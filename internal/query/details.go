package query

import (
	"slices"

	"github.com/kolah/apilens/internal/document"
	"github.com/kolah/apilens/internal/model"
	"github.com/kolah/apilens/internal/schema"
)

// Options selects which sections EndpointDetails fills in. Build it with
// DefaultOptions and override fields; it is passed by value and never mutated.
type Options struct {
	IncludeParameters  bool
	IncludeRequestBody bool
	IncludeResponses   bool
	IncludeSecurity    bool
	IncludeExamples    bool
	IncludeSchemas     bool

	// ResponseStatusCodes, when set, keeps only the listed responses.
	ResponseStatusCodes []string
}

func DefaultOptions() Options {
	return Options{
		IncludeParameters:  true,
		IncludeRequestBody: true,
		IncludeResponses:   true,
		IncludeSecurity:    false,
		IncludeExamples:    false,
		IncludeSchemas:     true,
	}
}

const defaultContentType = "application/json"

// EndpointDetails returns nil when the path or method does not exist.
func EndpointDetails(spec *document.Spec, path, method string, opts Options) *model.EndpointDetail {
	item, op, m := lookupOperation(spec, path, method)
	if op == nil {
		return nil
	}

	d := &model.EndpointDetail{
		EndpointSummary: summarize(path, m, op),
		Resolver:        spec,
	}

	if opts.IncludeParameters {
		d.Parameters = parameters(spec, item, op, opts)
	}
	if opts.IncludeRequestBody {
		d.RequestBody = requestBody(spec, item, op, opts)
	}
	if opts.IncludeResponses {
		d.Responses = responses(spec, op, opts)
	}
	if opts.IncludeSecurity {
		d.Security = security(spec, op)
	}
	return d
}

// parameters concatenates path-level and operation-level parameters. Nothing
// is deduplicated.
func parameters(spec *document.Spec, item, op *document.Node, opts Options) []model.Parameter {
	var out []model.Parameter
	for _, list := range []*document.Node{item.Get("parameters"), op.Get("parameters")} {
		for _, raw := range list.Items() {
			p := spec.Deref(raw)
			if p.Str("in") == "body" {
				continue
			}
			s := parameterSchema(spec, p)
			param := model.Parameter{
				Name:        p.Str("name"),
				In:          model.ParameterLocation(p.Str("in")),
				Required:    p.Get("required").Bool(),
				Deprecated:  p.Get("deprecated").Bool(),
				Type:        schema.SimpleType(s),
				Description: p.Str("description"),
			}
			if opts.IncludeSchemas {
				param.Schema = s
			}
			if opts.IncludeExamples {
				param.Example = firstNonNil(p.Get("example"), s.Get("example"), firstExample(p.Get("examples")))
			}
			out = append(out, param)
		}
	}
	return out
}

// parameterSchema finds the schema of a parameter: `schema` (3.x), the first
// content entry (3.x), or the parameter itself (2.0 keeps type inline).
func parameterSchema(spec *document.Spec, p *document.Node) *document.Node {
	if s := p.Get("schema"); s != nil {
		return s
	}
	for _, media := range spec.Deref(p.Get("content")).Pairs() {
		if s := media.Get("schema"); s != nil {
			return s
		}
	}
	if p.Has("type") {
		return p
	}
	return nil
}

func requestBody(spec *document.Spec, item, op *document.Node, opts Options) *model.RequestBody {
	if spec.IsSwagger2() {
		return swagger2Body(spec, item, op, opts)
	}
	rb := spec.Deref(op.Get("requestBody"))
	if !rb.IsMap() {
		return nil
	}
	body := &model.RequestBody{
		Required:    rb.Get("required").Bool(),
		Description: rb.Str("description"),
	}
	ct, media := firstContent(rb.Get("content"))
	body.ContentType = ct
	if opts.IncludeSchemas {
		body.Schema = media.Get("schema")
	}
	if opts.IncludeExamples {
		body.Examples = mediaExamples(media)
	}
	return body
}

func swagger2Body(spec *document.Spec, item, op *document.Node, opts Options) *model.RequestBody {
	for _, list := range []*document.Node{op.Get("parameters"), item.Get("parameters")} {
		for _, raw := range list.Items() {
			p := spec.Deref(raw)
			if p.Str("in") != "body" {
				continue
			}
			body := &model.RequestBody{
				Required:    p.Get("required").Bool(),
				Description: p.Str("description"),
				ContentType: firstMediaType(op.Get("consumes"), spec.Root.Get("consumes")),
			}
			if opts.IncludeSchemas {
				body.Schema = p.Get("schema")
			}
			if opts.IncludeExamples {
				body.Examples = p.Get("x-example")
			}
			return body
		}
	}
	return nil
}

func responses(spec *document.Spec, op *document.Node, opts Options) []model.Response {
	var out []model.Response
	for code, raw := range op.Get("responses").Pairs() {
		if len(opts.ResponseStatusCodes) > 0 && !slices.Contains(opts.ResponseStatusCodes, code) {
			continue
		}
		r := spec.Deref(raw)
		resp := model.Response{
			StatusCode:  code,
			Description: r.Str("description"),
		}
		if spec.IsSwagger2() {
			if r.Has("schema") {
				resp.ContentType = firstMediaType(op.Get("produces"), spec.Root.Get("produces"))
			}
			if opts.IncludeSchemas {
				resp.Schema = r.Get("schema")
			}
			if opts.IncludeExamples {
				resp.Examples = r.Get("examples")
			}
		} else {
			ct, media := firstContent(r.Get("content"))
			resp.ContentType = ct
			if opts.IncludeSchemas {
				resp.Schema = media.Get("schema")
			}
			if opts.IncludeExamples {
				resp.Examples = mediaExamples(media)
			}
		}
		out = append(out, resp)
	}
	return out
}

// security uses the operation's own requirements, or the global ones when the
// operation declares none.
func security(spec *document.Spec, op *document.Node) []model.SecurityRequirement {
	list := op.Get("security")
	if list == nil {
		list = spec.Security()
	}
	var out []model.SecurityRequirement
	for _, req := range list.Items() {
		var sr model.SecurityRequirement
		for name, scopes := range req.Pairs() {
			sr.Schemes = append(sr.Schemes, model.SecurityScheme{
				Name:   name,
				Scopes: append([]string{}, scopes.Strings()...),
			})
		}
		out = append(out, sr)
	}
	return out
}

// firstContent returns the first declared media type. Other media types are
// not enumerated.
func firstContent(content *document.Node) (string, *document.Node) {
	for ct, media := range content.Pairs() {
		return ct, media
	}
	return "", nil
}

func firstMediaType(lists ...*document.Node) string {
	for _, l := range lists {
		if v := l.Strings(); len(v) > 0 {
			return v[0]
		}
	}
	return defaultContentType
}

func mediaExamples(media *document.Node) *document.Node {
	if ex := media.Get("examples"); ex != nil {
		return ex
	}
	return media.Get("example")
}

func firstExample(examples *document.Node) *document.Node {
	for _, ex := range examples.Pairs() {
		if v := ex.Get("value"); v != nil {
			return v
		}
		return ex
	}
	return nil
}

func firstNonNil(nodes ...*document.Node) *document.Node {
	for _, n := range nodes {
		if n != nil {
			return n
		}
	}
	return nil
}
