package render

import (
	"fmt"
	"strings"

	"github.com/kolah/apilens/internal/model"
	"github.com/kolah/apilens/internal/schema"
)

// Compact prints one line per item with no nesting.
type Compact struct{}

func (Compact) EndpointList(eps []model.EndpointSummary) string {
	if len(eps) == 0 {
		return noEndpoints
	}
	lines := make([]string, len(eps))
	for i, ep := range eps {
		lines[i] = endpointLine(ep)
	}
	return strings.Join(lines, "\n")
}

func endpointLine(ep model.EndpointSummary) string {
	line := methodLabel(ep.Method) + " " + ep.Path
	if ep.Summary != "" {
		line += " - " + oneLine(ep.Summary)
	}
	if len(ep.Tags) > 0 {
		line += " [" + strings.Join(ep.Tags, ",") + "]"
	}
	if ep.Deprecated {
		line += " (deprecated)"
	}
	return line
}

func (Compact) EndpointDetail(d *model.EndpointDetail) string {
	if d == nil {
		return noEndpoints
	}
	lines := []string{endpointLine(d.EndpointSummary)}
	if d.OperationID != "" {
		lines = append(lines, "id: "+d.OperationID)
	}

	if len(d.Parameters) > 0 {
		params := make([]string, len(d.Parameters))
		for i, p := range d.Parameters {
			params[i] = fmt.Sprintf("%s%s(%s,%s)", p.Name, requiredMark(p.Required), p.In, orAny(p.Type))
		}
		lines = append(lines, "params: "+strings.Join(params, ", "))
	}

	if rb := d.RequestBody; rb != nil {
		body := "body: " + orAny(rb.ContentType)
		if rb.Schema != nil {
			body += " " + schema.SimpleType(rb.Schema)
		}
		lines = append(lines, body+requiredMark(rb.Required))
	}

	if len(d.Responses) > 0 {
		resps := make([]string, len(d.Responses))
		for i, r := range d.Responses {
			s := r.StatusCode
			if r.Schema != nil {
				s += " " + schema.SimpleType(r.Schema)
			} else if r.Description != "" {
				s += " " + oneLine(r.Description)
			}
			resps[i] = s
		}
		lines = append(lines, "responses: "+strings.Join(resps, ", "))
	}

	if len(d.Security) > 0 {
		lines = append(lines, "security: "+securityLine(d.Security))
	}
	return strings.Join(lines, "\n")
}

func securityLine(reqs []model.SecurityRequirement) string {
	alts := make([]string, 0, len(reqs))
	for _, req := range reqs {
		schemes := make([]string, len(req.Schemes))
		for i, s := range req.Schemes {
			schemes[i] = s.Name
			if len(s.Scopes) > 0 {
				schemes[i] += "[" + strings.Join(s.Scopes, ",") + "]"
			}
		}
		if len(schemes) == 0 {
			alts = append(alts, "none")
			continue
		}
		alts = append(alts, strings.Join(schemes, "+"))
	}
	return strings.Join(alts, " | ")
}

func (Compact) SessionInfo(info model.SessionInfo) string {
	return sessionLine(info)
}

func sessionLine(info model.SessionInfo) string {
	return fmt.Sprintf("%s | %s v%s | %d endpoints, %d tags, %d schemas | %s",
		info.ID, orUntitled(info.Title), info.Version, info.EndpointCount, info.TagCount, info.SchemaCount, info.OutputFormat)
}

func (Compact) SessionList(list model.SessionList) string {
	if len(list.Sessions) == 0 {
		return noSessions
	}
	lines := make([]string, len(list.Sessions))
	for i, s := range list.Sessions {
		lines[i] = sessionLine(s)
	}
	return strings.Join(lines, "\n")
}

func (Compact) TagList(tags model.TagList) string {
	if len(tags.Tags) == 0 {
		return noTags
	}
	return strings.Join(tags.Tags, ", ")
}

func (Compact) Components(c model.Components) string {
	if c.Len() == 0 {
		return noComponents
	}
	var lines []string
	for _, sec := range c.Sections {
		if len(sec.Entries) == 0 {
			continue
		}
		names := make([]string, len(sec.Entries))
		for i, e := range sec.Entries {
			names[i] = e.Name
		}
		lines = append(lines, sec.Type+": "+strings.Join(names, ", "))
	}
	return strings.Join(lines, "\n")
}

func (Compact) Success(message string) string {
	return "OK: " + message
}

func (Compact) Error(message string) string {
	return "Error: " + message
}

func methodLabel(m model.Method) string {
	return strings.ToUpper(string(m))
}

func requiredMark(required bool) string {
	if required {
		return "*"
	}
	return ""
}

func orAny(s string) string {
	if s == "" {
		return "any"
	}
	return s
}

func orUntitled(s string) string {
	if s == "" {
		return "Untitled API"
	}
	return s
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
