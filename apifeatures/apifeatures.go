// Package apifeatures turns request query parameters into a MongoDB query:
// filter, sort, projection and page window.
package apifeatures

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100
)

// reserved parameters never end up in the filter.
var reserved = map[string]bool{
	"page":   true,
	"sort":   true,
	"limit":  true,
	"fields": true,
}

// references hold ObjectIDs, so their hex values are cast before matching.
var references = map[string]bool{
	"_id":    true,
	"tour":   true,
	"user":   true,
	"guides": true,
}

var operators = map[string]string{
	"gt":  "$gt",
	"gte": "$gte",
	"lt":  "$lt",
	"lte": "$lte",
}

// Spec is the query derived from a request.
type Spec struct {
	Filter     bson.D
	Sort       bson.D
	Projection bson.D
	Page       int
	Limit      int
	Skip       int64
}

// Step refines a Spec from the request parameters.
type Step func(Spec, url.Values) Spec

type Builder struct {
	// MaxLimit caps the page size. Zero means no cap.
	MaxLimit int
	// MultiValue lists fields whose repeated parameters become an $in predicate.
	// Other repeated parameters keep their last value.
	MultiValue map[string]bool
}

func NewBuilder(maxLimit int, multiValue ...string) *Builder {
	mv := make(map[string]bool, len(multiValue))
	for _, f := range multiValue {
		mv[f] = true
	}
	return &Builder{MaxLimit: maxLimit, MultiValue: mv}
}

// Build runs filter, sort, projection and pagination in that order.
func (b *Builder) Build(params url.Values) Spec {
	return Pipeline(params, b.Filter, b.Sort, b.LimitFields, b.Paginate)
}

// Build uses a Builder without a limit cap or multi-value fields.
func Build(params url.Values) Spec {
	return (&Builder{}).Build(params)
}

// Pipeline applies the steps in order starting from an empty Spec.
func Pipeline(params url.Values, steps ...Step) Spec {
	var spec Spec
	for _, step := range steps {
		spec = step(spec, params)
	}
	return spec
}

func (b *Builder) Filter(spec Spec, params url.Values) Spec {
	type predicate struct {
		value any
		ops   bson.D
	}
	fields := make(map[string]*predicate)

	for key, values := range params {
		if reserved[key] || len(values) == 0 {
			continue
		}
		field, op, ok := splitKey(key)
		if !ok {
			continue
		}
		p, exists := fields[field]
		if !exists {
			p = &predicate{}
			fields[field] = p
		}

		if op == "" {
			if b.MultiValue[field] && len(values) > 1 {
				in := make(bson.A, 0, len(values))
				for _, v := range values {
					in = append(in, coerceField(field, v))
				}
				p.value = bson.D{{Key: "$in", Value: in}}
			} else {
				p.value = coerceField(field, values[len(values)-1])
			}
			continue
		}

		mongoOp, known := operators[op]
		if !known {
			mongoOp = op
		}
		p.ops = append(p.ops, bson.E{Key: mongoOp, Value: coerceField(field, values[len(values)-1])})
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	filter := make(bson.D, 0, len(names))
	for _, name := range names {
		p := fields[name]
		// operators win over a plain value on the same field
		if len(p.ops) > 0 {
			sort.Slice(p.ops, func(i, j int) bool { return p.ops[i].Key < p.ops[j].Key })
			filter = append(filter, bson.E{Key: name, Value: p.ops})
			continue
		}
		filter = append(filter, bson.E{Key: name, Value: p.value})
	}

	spec.Filter = filter
	return spec
}

func (b *Builder) Sort(spec Spec, params url.Values) Spec {
	spec.Sort = nil
	seen := make(map[string]bool)
	for _, part := range splitList(last(params, "sort")) {
		dir := 1
		if strings.HasPrefix(part, "-") {
			dir = -1
			part = part[1:]
		}
		if part == "" || strings.HasPrefix(part, "$") || seen[part] {
			continue
		}
		seen[part] = true
		spec.Sort = append(spec.Sort, bson.E{Key: part, Value: dir})
	}
	if len(spec.Sort) == 0 {
		spec.Sort = bson.D{{Key: "createdAt", Value: -1}}
	}
	return spec
}

func (b *Builder) LimitFields(spec Spec, params url.Values) Spec {
	var include, exclude bson.D
	seen := make(map[string]bool)
	for _, part := range splitList(last(params, "fields")) {
		excluded := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		if name == "" || strings.HasPrefix(name, "$") || seen[name] {
			continue
		}
		seen[name] = true
		if excluded {
			exclude = append(exclude, bson.E{Key: name, Value: 0})
		} else {
			include = append(include, bson.E{Key: name, Value: 1})
		}
	}

	switch {
	case len(include) > 0:
		spec.Projection = include
	case len(exclude) > 0:
		spec.Projection = exclude
	default:
		spec.Projection = bson.D{{Key: "__v", Value: 0}}
	}
	return spec
}

func (b *Builder) Paginate(spec Spec, params url.Values) Spec {
	page := positiveInt(last(params, "page"), DefaultPage)
	limit := positiveInt(last(params, "limit"), DefaultLimit)
	if b.MaxLimit > 0 && limit > b.MaxLimit {
		limit = b.MaxLimit
	}
	spec.Page = page
	spec.Limit = limit
	spec.Skip = int64(page-1) * int64(limit)
	return spec
}

// FindOptions translates the Spec into driver options.
func (s Spec) FindOptions() *options.FindOptionsBuilder {
	opts := options.Find()
	if len(s.Sort) > 0 {
		opts.SetSort(s.Sort)
	}
	if len(s.Projection) > 0 {
		opts.SetProjection(s.Projection)
	}
	if s.Skip > 0 {
		opts.SetSkip(s.Skip)
	}
	if s.Limit > 0 {
		opts.SetLimit(int64(s.Limit))
	}
	return opts
}

// Where adds a fixed predicate, replacing any client supplied predicate on
// the same field.
func (s Spec) Where(field string, value any) Spec {
	filter := make(bson.D, 0, len(s.Filter)+1)
	for _, e := range s.Filter {
		if e.Key != field {
			filter = append(filter, e)
		}
	}
	s.Filter = append(filter, bson.E{Key: field, Value: value})
	return s
}

// Hide removes fields from the filter and sort and keeps them out of the
// projection, whichever mode the projection is in.
func (s Spec) Hide(fields ...string) Spec {
	hidden := make(map[string]bool, len(fields))
	for _, f := range fields {
		hidden[f] = true
	}

	s.Filter = without(s.Filter, hidden)
	s.Sort = without(s.Sort, hidden)
	if len(s.Sort) == 0 {
		s.Sort = bson.D{{Key: "createdAt", Value: -1}}
	}

	if isInclusion(s.Projection) {
		s.Projection = without(s.Projection, hidden)
		if len(s.Projection) > 0 {
			return s
		}
	}

	projection := without(s.Projection, hidden)
	for _, f := range fields {
		projection = append(projection, bson.E{Key: f, Value: 0})
	}
	s.Projection = projection
	return s
}

func isInclusion(d bson.D) bool {
	for _, e := range d {
		if v, ok := e.Value.(int); ok && v == 1 {
			return true
		}
	}
	return false
}

func without(d bson.D, hidden map[string]bool) bson.D {
	if len(d) == 0 {
		return d
	}
	out := make(bson.D, 0, len(d))
	for _, e := range d {
		if !hidden[e.Key] {
			out = append(out, e)
		}
	}
	return out
}

// splitKey parses "field" and "field[op]". Keys that try to smuggle a raw
// operator are rejected.
func splitKey(key string) (field, op string, ok bool) {
	field = key
	if i := strings.Index(key, "["); i >= 0 && strings.HasSuffix(key, "]") {
		field = key[:i]
		op = key[i+1 : len(key)-1]
	}
	if field == "" || strings.HasPrefix(field, "$") || strings.HasPrefix(op, "$") {
		return "", "", false
	}
	if strings.ContainsAny(op, "[]") {
		return "", "", false
	}
	return field, op, true
}

func coerceField(field, v string) any {
	if references[field] {
		if id, err := bson.ObjectIDFromHex(v); err == nil {
			return id
		}
	}
	return coerce(v)
}

func coerce(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return v
}

func positiveInt(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func last(params url.Values, key string) string {
	values := params[key]
	if len(values) == 0 {
		return ""
	}
	return values[len(values)-1]
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
