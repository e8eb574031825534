package export

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// 客户端本地持久化使用的存储键。三者互不混用。
const (
	ThemeStorageKey           = "papercv.theme"
	NoticeDismissedStorageKey = "papercv.notice.dismissed"
	ExportPayloadStorageKey   = "papercv.export.payload"
)

// 沙盒页面与外部世界约定的数据通道与完成信号。
const (
	// ResumeDataGlobal 是沙盒页面全局对象上的数据入口，加载脚本优先读它。
	ResumeDataGlobal = "__RESUME_DATA__"
	// ReadyMarkerID 出现在 DOM 中表示排版已稳定，可以出 PDF。
	ReadyMarkerID = "pdf-render-ready"
	// FailedMarkerID 出现在 DOM 中表示该次导出尝试已终结。
	FailedMarkerID = "pdf-render-failed"
)

const (
	// 数据轮询间隔与总等待时长。沙盒可能在数据通道写入前就加载完成，
	// 两个隔离上下文之间又没有推送通知，只能靠有界轮询加兜底超时。
	dataPollIntervalMS = 150
	dataWaitTimeoutMS  = 5000
)

// BuildShellDocument 把导出负载组装成沙盒可独立加载的完整 HTML 文档：
// 样式快照内联进 <style>，内容标记放入 body，简历 JSON 通过引导脚本
// 写入全局变量与持久化兜底键，再由加载脚本按约定握手发出完成信号。
func BuildShellDocument(p Payload) (string, error) {
	raw, err := json.Marshal(p.ResumeData)
	if err != nil {
		return "", fmt.Errorf("serialize resume data: %w", err)
	}
	quoted := strconv.Quote(string(raw))

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Resume Export</title>
<style>
%s
</style>
<script>
(function () {
  var raw = %s;
  window.%s = JSON.parse(raw);
  try { localStorage.setItem(%q, raw); } catch (e) {}
  try {
    var theme = localStorage.getItem(%q) || "light";
    document.documentElement.setAttribute("data-theme", theme);
  } catch (e) {}
})();
</script>
</head>
<body>
%s
<script>
%s
</script>
</body>
</html>
`, p.CSS, quoted, ResumeDataGlobal, ExportPayloadStorageKey, ThemeStorageKey, p.HTML, loaderScript()), nil
}

// loaderScript 返回沙盒侧的数据握手脚本。
// 成功与超时两条路径都必须清理 interval 与 timeout 句柄。
func loaderScript() string {
	return fmt.Sprintf(`(function () {
  function readPayload() {
    if (window.%[1]s) return window.%[1]s;
    try {
      var raw = localStorage.getItem(%[2]q);
      if (raw) return JSON.parse(raw);
    } catch (e) {}
    return null;
  }

  function mark(id, reason) {
    var el = document.createElement("div");
    el.id = id;
    el.style.display = "none";
    if (reason) el.setAttribute("data-reason", reason);
    document.body.appendChild(el);
  }

  var interval = null;
  var deadline = null;

  function settle(data) {
    clearInterval(interval);
    clearTimeout(deadline);
    window.%[1]s = data;
    requestAnimationFrame(function () {
      requestAnimationFrame(function () {
        mark(%[3]q, "");
      });
    });
  }

  function abandon() {
    clearInterval(interval);
    clearTimeout(deadline);
    mark(%[4]q, "no data");
  }

  var first = readPayload();
  if (first) {
    settle(first);
    return;
  }

  interval = setInterval(function () {
    var data = readPayload();
    if (data) settle(data);
  }, %[5]d);
  deadline = setTimeout(abandon, %[6]d);
})();`,
		ResumeDataGlobal,
		ExportPayloadStorageKey,
		ReadyMarkerID,
		FailedMarkerID,
		dataPollIntervalMS,
		dataWaitTimeoutMS,
	)
}
