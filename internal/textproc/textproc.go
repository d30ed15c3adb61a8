// Package textproc flattens job-page HTML fragments into plain text and
// classifies the section structure extractors rely on.
package textproc

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Section labels returned by ClassifyHeading.
const (
	SectionSummary        = "summary"
	SectionRequirements   = "requirements"
	SectionQualifications = "qualifications"
	SectionBenefits       = "benefits"
	SectionOther          = "other"
)

var sectionIdentifiers = map[string][]string{
	SectionSummary: {
		"about the role", "overview", "position summary", "job summary",
		"role overview", "the opportunity", "position overview",
		"what you'll do", "responsibilities", "the role",
	},
	SectionRequirements: {
		"requirements", "what you'll need", "qualifications",
		"key skills", "must have", "required skills",
		"technical requirements", "minimum qualifications",
		"basic qualifications", "essential skills",
		"what we're looking for", "who you are",
	},
	SectionQualifications: {
		"preferred qualifications", "nice to have", "desired skills",
		"additional qualifications", "preferred skills",
		"bonus points", "ideal candidate", "great if you have",
	},
	SectionBenefits: {
		"benefits", "perks", "what we offer", "why join us",
		"compensation", "what's in it for you", "rewards",
		"total compensation", "package includes", "we provide",
		"why work here", "what you'll get",
	},
}

// classifyOrder keeps the more specific sections ahead of the ones whose
// phrase lists overlap them ("preferred qualifications" must not match
// the plain "qualifications" entry under requirements).
var classifyOrder = []string{
	SectionQualifications,
	SectionRequirements,
	SectionBenefits,
	SectionSummary,
}

// techTerms maps an uppercased word to the casing it should keep.
var techTerms = map[string]string{
	"API": "API", "AWS": "AWS", "REST": "REST", "SQL": "SQL",
	"UI": "UI", "UX": "UX", "HTML": "HTML", "CSS": "CSS", "JS": "JS",
	"JAVASCRIPT": "JavaScript", "PYTHON": "Python", "REACT": "React",
	"NODE.JS": "Node.js", "TYPESCRIPT": "TypeScript", "VUE": "Vue",
	"ANGULAR": "Angular", "DOCKER": "Docker", "KUBERNETES": "Kubernetes",
	"GIT": "Git", "CI/CD": "CI/CD", "DEVOPS": "DevOps",
}

// ClassifyHeading maps a section heading onto one of the canonical
// section labels via the curated phrase lists.
func ClassifyHeading(text string) string {
	return ClassifyHeadingWithContent(text, "")
}

// ClassifyHeadingWithContent additionally inspects the content following
// the heading when the heading itself is ambiguous.
func ClassifyHeadingWithContent(text, content string) string {
	lower := strings.ToLower(text)
	for _, section := range classifyOrder {
		for _, identifier := range sectionIdentifiers[section] {
			if strings.Contains(lower, identifier) {
				return section
			}
		}
	}

	if content != "" {
		contentLower := strings.ToLower(content)
		switch {
		case containsAny(contentLower, "required", "must have", "essential"):
			return SectionRequirements
		case containsAny(contentLower, "preferred", "nice to have", "ideal"):
			return SectionQualifications
		case containsAny(contentLower, "offer", "provide", "package", "compensation"):
			return SectionBenefits
		}
	}
	return SectionOther
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

var (
	blankLines = regexp.MustCompile(`\n\s*\n`)
	spaceRuns  = regexp.MustCompile(` +`)
)

// CleanHTML strips tags from a fragment while preserving structure:
// script/style dropped, lists become literal "• " bullets, links keep
// their target, paragraphs keep their breaks.
func CleanHTML(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	fragment = strings.ReplaceAll(fragment, "<br>", "\n")
	fragment = strings.ReplaceAll(fragment, "<br/>", "\n")
	fragment = strings.ReplaceAll(fragment, "<br />", "\n")

	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	var b strings.Builder
	renderNode(&b, root)

	text := blankLines.ReplaceAllString(b.String(), "\n\n")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func renderNode(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style":
			return
		case "code", "pre":
			b.WriteString("\n```\n")
			b.WriteString(nodeText(n))
			b.WriteString("\n```\n")
			return
		case "a":
			text := strings.TrimSpace(nodeText(n))
			href := attr(n, "href")
			if href != "" && !strings.HasPrefix(href, "#") {
				b.WriteString(text + " (" + href + ")")
			} else {
				b.WriteString(text)
			}
			return
		case "li":
			b.WriteString("\n• ")
			b.WriteString(strings.TrimSpace(nodeText(n)))
			return
		case "p":
			b.WriteString("\n\n")
			renderChildren(b, n)
			b.WriteString("\n\n")
			return
		case "h1", "h2", "h3", "h4", "h5", "h6":
			b.WriteString("\n\n")
			renderChildren(b, n)
			b.WriteString("\n")
			return
		}
	}
	renderChildren(b, n)
}

func renderChildren(b *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderNode(b, c)
	}
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

var bulletPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[•●■◆▪–—+*-]+\s*(.+)$`),
	regexp.MustCompile(`^\d+[.)]\s+(.+)$`),
	regexp.MustCompile(`^[A-Za-z]\)\s+(.+)$`),
}

// ExtractBulletPoints splits text into bullet fragments. A line counts
// only when it carries an explicit bullet, number, or letter marker;
// marker-less lines are never bullets. Fragments of a single rune are
// discarded as noise. Duplicates collapse, order preserved.
func ExtractBulletPoints(text string) []string {
	if text == "" {
		return nil
	}

	var points []string
	seen := map[string]struct{}{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var fragment string
		for _, pattern := range bulletPatterns {
			if m := pattern.FindStringSubmatch(line); m != nil {
				fragment = m[1]
				break
			}
		}
		if fragment == "" {
			continue
		}
		fragment = strings.Join(strings.Fields(fragment), " ")
		if len([]rune(fragment)) < 2 {
			continue
		}
		key := strings.ToLower(fragment)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		points = append(points, fragment)
	}
	return points
}

// CleanList normalizes requirement/benefit items: marker prefixes
// stripped, whitespace collapsed, duplicates dropped in order.
func CleanList(items []string) []string {
	var cleaned []string
	seen := map[string]struct{}{}
	prefix := regexp.MustCompile(`^[-•*]+\s*`)
	for _, item := range items {
		item = prefix.ReplaceAllString(strings.TrimSpace(item), "")
		item = strings.Join(strings.Fields(item), " ")
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, item)
	}
	return cleaned
}

var (
	locationSeparators = regexp.MustCompile(`\s*[/,]\s*`)
	remotePattern      = regexp.MustCompile(`(?i)remote( work)?|work from home`)
	hybridPattern      = regexp.MustCompile(`(?i)hybrid( work)?`)
)

// CleanLocation standardizes separators and Remote/Hybrid markers,
// then title-cases the result.
func CleanLocation(location string) string {
	if location == "" {
		return ""
	}
	location = locationSeparators.ReplaceAllString(location, ", ")
	location = remotePattern.ReplaceAllString(location, "Remote")
	location = hybridPattern.ReplaceAllString(location, "Hybrid")
	location = strings.Join(strings.Fields(location), " ")
	return TitleCase(location)
}

// TitleCase capitalizes each word while preserving known tech terms.
func TitleCase(text string) string {
	if text == "" {
		return ""
	}
	words := strings.Fields(text)
	for i, word := range words {
		if canonical, ok := techTerms[strings.ToUpper(word)]; ok {
			words[i] = canonical
			continue
		}
		runes := []rune(strings.ToLower(word))
		runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

var sentenceSplit = regexp.MustCompile(`([.!?])\s+`)

// SentenceCase uppercases the first letter of each sentence.
func SentenceCase(text string) string {
	if text == "" {
		return ""
	}
	sentences := sentenceSplit.Split(text, -1)
	marks := sentenceSplit.FindAllStringSubmatch(text, -1)
	var b strings.Builder
	for i, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		runes := []rune(sentence)
		runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(string(runes))
		if i < len(marks) {
			b.WriteString(marks[i][1])
		}
	}
	return b.String()
}
