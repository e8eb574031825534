package styles

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// 单个样式表的体积上限，防止异常来源撑爆导出负载。
const maxStylesheetBytes = 2 << 20

// Warning 记录一条被跳过的样式来源及原因。
type Warning struct {
	Href   string `json:"href"`
	Reason string `json:"reason"`
}

// Collector 把渲染文档引用的全部样式来源汇总成一段 CSS 文本，
// 使其在原页面之外（导出沙盒）也能还原同样的视觉效果。
type Collector struct {
	client *http.Client
	logger *slog.Logger
}

// NewCollector 构造采集器。client 为 nil 时使用带超时的默认客户端。
func NewCollector(client *http.Client, logger *slog.Logger) *Collector {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{client: client, logger: logger}
}

// Collect 按文档顺序拼接样式来源：
// - <style> 块原样拼入；
// - 与 baseURL 同源的 <link rel="stylesheet"> 拉取后内联；
// - 跨域样式表按既定取舍跳过并记录 warning（导出保真度的已知缺口，不视为错误）。
// 单个来源不可读（网络错误、非 2xx）同样只记 warning，采集继续并返回已得部分。
// 拼接顺序与文档顺序一致，后写的规则按标准级联语义覆盖先写的。
func (c *Collector) Collect(ctx context.Context, docHTML string, baseURL string) (string, []Warning, error) {
	root, err := html.Parse(strings.NewReader(docHTML))
	if err != nil {
		return "", nil, fmt.Errorf("parse document: %w", err)
	}

	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}

	var parts []string
	var warnings []Warning

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "style":
				parts = append(parts, textContent(n))
			case "link":
				if isStylesheetLink(n) {
					css, warn := c.fetchStylesheet(ctx, base, linkHref(n))
					if warn != nil {
						warnings = append(warnings, *warn)
					} else {
						parts = append(parts, css)
					}
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	return strings.Join(parts, "\n"), warnings, nil
}

func (c *Collector) fetchStylesheet(ctx context.Context, base *url.URL, href string) (string, *Warning) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", &Warning{Reason: "stylesheet link without href"}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", &Warning{Href: href, Reason: "unparseable href"}
	}
	target := base.ResolveReference(ref)

	if !sameOrigin(base, target) {
		w := Warning{Href: href, Reason: "cross-origin stylesheet skipped"}
		c.logger.Warn("skip cross-origin stylesheet",
			slog.String("href", href),
			slog.String("origin", target.Scheme+"://"+target.Host),
		)
		return "", &w
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", &Warning{Href: href, Reason: fmt.Sprintf("build request: %v", err)}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("fetch stylesheet failed", slog.String("href", href), slog.Any("error", err))
		return "", &Warning{Href: href, Reason: "fetch failed"}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("fetch stylesheet non-2xx",
			slog.String("href", href),
			slog.Int("status", resp.StatusCode),
		)
		return "", &Warning{Href: href, Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxStylesheetBytes))
	if err != nil {
		return "", &Warning{Href: href, Reason: "read body failed"}
	}
	return string(data), nil
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(a.Host, b.Host)
}

func isStylesheetLink(n *html.Node) bool {
	var rel string
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, "rel") {
			rel = attr.Val
			break
		}
	}
	for _, token := range strings.Fields(rel) {
		if strings.EqualFold(token, "stylesheet") {
			return true
		}
	}
	return false
}

func linkHref(n *html.Node) string {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, "href") {
			return attr.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			sb.WriteString(child.Data)
		}
	}
	return sb.String()
}
