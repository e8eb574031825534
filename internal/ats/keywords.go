package ats

import (
	"sort"
	"strings"
	"unicode"
)

// 提取的关键词数量上限，避免超长 JD 稀释评分。
const maxExtractedKeywords = 30

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "you": true,
	"your": true, "our": true, "are": true, "will": true, "have": true,
	"has": true, "this": true, "that": true, "from": true, "not": true,
	"all": true, "can": true, "who": true, "what": true, "work": true,
	"working": true, "years": true, "year": true, "team": true, "role": true,
	"job": true, "position": true, "experience": true, "requirements": true,
	"required": true, "preferred": true, "skills": true, "ability": true,
	"strong": true, "about": true, "into": true, "more": true, "than": true,
	"such": true, "other": true, "including": true, "knowledge": true,
	"etc": true, "per": true, "plus": true, "must": true, "should": true,
	"would": true, "like": true, "well": true, "good": true, "great": true,
}

// ExtractKeywords 从职位描述里提取候选关键词：按词频降序、同频字典序，
// 去掉常见虚词与过短 token。空描述返回空切片。
func ExtractKeywords(jobDescription string) []string {
	counts := make(map[string]int)

	token := func(r rune) bool {
		// 保留 c++ / c# / node.js 这类技术名里的符号。
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#' && r != '.'
	}
	for _, word := range strings.FieldsFunc(strings.ToLower(jobDescription), token) {
		word = strings.Trim(word, ".")
		if len(word) < 3 && !strings.ContainsAny(word, "+#") {
			continue
		}
		if stopwords[word] {
			continue
		}
		counts[word]++
	}

	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > maxExtractedKeywords {
		words = words[:maxExtractedKeywords]
	}
	return words
}
