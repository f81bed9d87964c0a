package gitlab

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"
)

// Array is a query parameter sent as repeated "name[]" entries, in order.
type Array []interface{}

// QueryParams holds query parameters keyed by name. Values may be strings,
// booleans, integers, floats, time.Time, fmt.Stringer, []string or Array.
// Nil values are skipped.
type QueryParams map[string]interface{}

// NewQueryParams creates an empty parameter set.
func NewQueryParams() QueryParams {
	return make(QueryParams)
}

// Set assigns a parameter and returns the set for chaining.
func (q QueryParams) Set(key string, value interface{}) QueryParams {
	q[key] = value

	return q
}

// SetIfNotEmpty assigns a string parameter only when it is non-empty.
func (q QueryParams) SetIfNotEmpty(key, value string) QueryParams {
	if value != "" {
		q[key] = value
	}

	return q
}

// SetIfTrue assigns a boolean parameter only when it is true.
func (q QueryParams) SetIfTrue(key string, value bool) QueryParams {
	if value {
		q[key] = true
	}

	return q
}

// ToValues converts the parameters to url.Values.
func (q QueryParams) ToValues() url.Values {
	values := url.Values{}

	keys := make([]string, 0, len(q))
	for key := range q {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		switch value := q[key].(type) {
		case nil:
		case Array:
			for _, item := range value {
				if item == nil {
					continue
				}

				values.Add(key+"[]", formatScalar(item))
			}
		case []string:
			for _, item := range value {
				values.Add(key, item)
			}
		case *time.Time:
			if value != nil {
				values.Set(key, value.Format(time.RFC3339))
			}
		default:
			values.Set(key, formatScalar(value))
		}
	}

	return values
}

// Merge copies every parameter of other into q, overwriting existing keys.
func (q QueryParams) Merge(other QueryParams) QueryParams {
	for key, value := range other {
		q[key] = value
	}

	return q
}

func formatScalar(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// ListOptions are the pagination parameters shared by list endpoints.
type ListOptions struct {
	// Page requests a single page. Zero lets the server choose the first page.
	Page int
	// PerPage sets the page size. Zero uses the client default.
	PerPage int
	// All fetches every page.
	All bool
}

// Apply writes page and per_page into params. Zero values are omitted.
func (o *ListOptions) Apply(params QueryParams) QueryParams {
	if o == nil {
		return params
	}

	if o.Page > 0 {
		params.Set("page", o.Page)
	}

	if o.PerPage > 0 {
		params.Set("per_page", o.PerPage)
	}

	return params
}
