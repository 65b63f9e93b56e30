package knowledge

import "strings"

// Body returns the Markdown body of a. Articles without content get the
// standard knowledge-base layout built from their metadata.
func Body(a Article) string {
	if strings.TrimSpace(a.Content) != "" {
		return a.Content
	}
	return DefaultBody(a)
}

// DefaultBody builds the standard article body from metadata.
func DefaultBody(a Article) string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	line("## 概述")
	line("")
	line(a.Excerpt)
	line("")
	line("## 主要要点")
	line("")
	line("### 核心信息")
	line("")
	if a.Date != "" {
		line("- **发布日期：**" + a.Date)
	}
	if a.ReadingTime != "" {
		line("- **阅读时间：**" + a.ReadingTime)
	}
	line("- **分类：**" + a.Category)
	if a.Type != "" {
		line("- **类型：**" + a.Type)
	}
	if a.Difficulty != "" {
		line("- **难度：**" + a.Difficulty)
	}
	if len(a.Tags) > 0 {
		line("")
		line("### 相关标签")
		line("")
		line(strings.Join(a.Tags, ", "))
	}
	line("")
	line("## 详细信息")
	line("")
	line("本文章详细介绍" + a.Category + "相关的专业知识和实用指南。如需了解更多信息，请联系Mobius专业顾问。")
	line("")
	line("## 专业服务")
	line("")
	line("Mobius为您提供全方位的" + a.Category + "支持服务，包括专业咨询、申请协助、后续跟进等。")
	line("")
	line("## 联系方式")
	line("")
	line("如需了解更多信息或获取专业咨询，请联系我们的专业顾问团队。")
	return b.String()
}
