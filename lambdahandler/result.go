package lambdahandler

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/tidwall/gjson"
)

const statusCodeKey = "statusCode"

type statusCoder interface {
	StatusCode() int
}

// statusCodeOf extracts the HTTP-like status code of a handler result. Results
// without one are treated as successful.
func statusCodeOf(result any) int {
	if code, ok := lookupStatusCode(result); ok && code > 0 {
		return code
	}
	return http.StatusOK
}

func lookupStatusCode(result any) (int, bool) {
	switch r := result.(type) {
	case nil:
		return 0, false
	case statusCoder:
		if isNilPointer(r) {
			return 0, false
		}
		return r.StatusCode(), true
	case events.APIGatewayProxyResponse:
		return r.StatusCode, true
	case *events.APIGatewayProxyResponse:
		if r == nil {
			return 0, false
		}
		return r.StatusCode, true
	case events.APIGatewayV2HTTPResponse:
		return r.StatusCode, true
	case *events.APIGatewayV2HTTPResponse:
		if r == nil {
			return 0, false
		}
		return r.StatusCode, true
	case events.ALBTargetGroupResponse:
		return r.StatusCode, true
	case *events.ALBTargetGroupResponse:
		if r == nil {
			return 0, false
		}
		return r.StatusCode, true
	case events.LambdaFunctionURLResponse:
		return r.StatusCode, true
	case *events.LambdaFunctionURLResponse:
		if r == nil {
			return 0, false
		}
		return r.StatusCode, true
	case map[string]int:
		code, ok := r[statusCodeKey]
		return code, ok
	case map[string]any:
		return numericStatusCode(r[statusCodeKey])
	case json.RawMessage:
		return jsonStatusCode(r)
	case []byte:
		return jsonStatusCode(r)
	case string:
		return jsonStatusCode([]byte(r))
	}
	return 0, false
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func numericStatusCode(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}

func jsonStatusCode(raw []byte) (int, bool) {
	if !gjson.ValidBytes(raw) {
		return 0, false
	}
	v := gjson.GetBytes(raw, statusCodeKey)
	if !v.Exists() {
		return 0, false
	}
	return numericStatusCode(v.Value())
}

// outcome is what a handler produced: a value, an error, or a panic.
type outcome struct {
	value     any
	err       error
	recovered any
	panicked  bool
}

func (o outcome) failed() bool {
	return o.err != nil || o.panicked
}

// cause is the failure as an error, if the outcome carries one.
func (o outcome) cause() error {
	if o.err != nil {
		return o.err
	}
	if err, ok := o.recovered.(error); ok {
		return err
	}
	return nil
}

// statusCode is the transaction status the outcome finishes with.
func (o outcome) statusCode() int {
	if o.failed() {
		return http.StatusInternalServerError
	}
	return statusCodeOf(o.value)
}
