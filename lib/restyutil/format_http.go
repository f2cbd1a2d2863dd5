package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/go-resty/resty/v2"
)

// maxDumpBody caps how much of a response body is written to a dump,
// rendered listing pages run into megabytes.
const maxDumpBody = 256 * 1024

func writeHeaders(out *strings.Builder, headers http.Header) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		for _, v := range headers[k] {
			fmt.Fprintf(out, "%s: %s\n", k, v)
		}
	}
}

func requestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("<unreadable body: %s>", err)
	}
	defer body.Close()
	contents, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("<unreadable body: %s>", err)
	}
	return string(contents)
}

// formatExchange renders a request and its response as a plain text dump.
func formatExchange(res *resty.Response) string {
	out := &strings.Builder{}

	out.WriteString("---- REQUEST ----\n\n")
	fmt.Fprintf(out, "%s %s\n\n", res.Request.Method, res.Request.URL)
	if res.Request.RawRequest != nil {
		writeHeaders(out, res.Request.RawRequest.Header)
	}
	if body := requestBody(res.Request.RawRequest); body != "" {
		fmt.Fprintf(out, "\n%s\n", body)
	}

	finalUrl := res.Request.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalUrl = res.RawResponse.Request.URL.String()
	}
	out.WriteString("\n---- RESPONSE ----\n\n")
	fmt.Fprintf(out, "%d %s\n\n", res.StatusCode(), finalUrl)
	writeHeaders(out, res.Header())

	body := res.Body()
	out.WriteString("\n")
	if len(body) > maxDumpBody {
		out.Write(body[:maxDumpBody])
		fmt.Fprintf(out, "\n<truncated %d bytes>", len(body)-maxDumpBody)
		return out.String()
	}
	out.Write(body)
	return out.String()
}
