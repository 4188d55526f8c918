package experiment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/torosent/chaosfire/internal/httpclient"
	"github.com/torosent/chaosfire/internal/metrics"
)

// StatusFault labels requests replaced by an injected fault.
const StatusFault = "FAULT"

// requestMeta derives the status bucket for a finished request.
func requestMeta(resp *httpclient.Response, err error) *metrics.RequestMetadata {
	var fault *InjectedFaultError
	if errors.As(err, &fault) {
		return &metrics.RequestMetadata{StatusCode: StatusFault, Injected: true}
	}
	if resp != nil {
		return &metrics.RequestMetadata{StatusCode: strconv.Itoa(resp.StatusCode), Injected: resp.Injected}
	}
	return &metrics.RequestMetadata{StatusCode: fallbackStatusCode(err)}
}

func sanitizeStatusCode(status string) string {
	trimmed := strings.TrimSpace(status)
	if trimmed == "" {
		return "UNKNOWN"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", ".", "_", "-", "_")
	normalized := strings.ToUpper(replacer.Replace(trimmed))
	normalized = strings.Trim(normalized, "_")
	if normalized == "" {
		return "UNKNOWN"
	}
	return normalized
}

// fallbackStatusCode names a transport error by its type, e.g. "OPERROR".
func fallbackStatusCode(err error) string {
	if err == nil {
		return ""
	}
	typeName := strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
	if idx := strings.LastIndex(typeName, "/"); idx != -1 {
		typeName = typeName[idx+1:]
	}
	if idx := strings.LastIndex(typeName, "."); idx != -1 {
		typeName = typeName[idx+1:]
	}
	return sanitizeStatusCode(typeName)
}
