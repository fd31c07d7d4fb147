// Package telegram enriches incident sources with the content of public
// Telegram channel posts.
package telegram

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/david/tender-tracker/internal/models"
)

var backgroundImageRegex = regexp.MustCompile(`background-image:url\('(.*)'\)`)

// isoLayout matches the offset style ("+00:00") used for created_at.
const isoLayout = "2006-01-02T15:04:05-07:00"

// post accumulates the parts of one or more embed pages.
type post struct {
	text   string
	date   *time.Time
	images []string
	videos []string
}

// ParsePost extracts text, date and media from a post embed page.
func ParsePost(r io.Reader, link string) (models.TelegramPost, error) {
	var p post
	if err := p.parse(r); err != nil {
		return models.TelegramPost{}, err
	}
	return p.result(link), nil
}

func (p *post) parse(r io.Reader) error {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return fmt.Errorf("parse post: %w", err)
	}

	p.text = ""
	if msg := doc.Find("div.tgme_widget_message_text.js-message_text").First(); msg.Length() > 0 {
		p.text = messageText(msg)
	}

	if dt, ok := doc.Find(".tgme_widget_message_meta time.datetime").First().Attr("datetime"); ok && dt != "" {
		if t, err := time.Parse(time.RFC3339, dt); err == nil {
			p.date = &t
		}
	}

	doc.Find("a.tgme_widget_message_photo_wrap").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		if m := backgroundImageRegex.FindStringSubmatch(style); len(m) == 2 {
			p.images = append(p.images, m[1])
		}
	})

	addVideo := func(src string) {
		if src == "" {
			return
		}
		for _, v := range p.videos {
			if v == src {
				return
			}
		}
		p.videos = append(p.videos, src)
	}
	doc.Find(`video[src], source[type="video/mp4"], source[type="application/x-mpegURL"]`).Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		addVideo(src)
	})
	doc.Find("div[data-video]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("data-video")
		addVideo(src)
	})

	return nil
}

func (p *post) result(link string) models.TelegramPost {
	out := models.TelegramPost{
		Text:  p.text,
		Link:  link,
		Media: make([]models.Media, 0, len(p.images)+len(p.videos)),
	}
	for _, u := range p.images {
		out.Media = append(out.Media, models.Media{Type: "image", URL: u})
	}
	for _, u := range p.videos {
		out.Media = append(out.Media, models.Media{Type: "video", URL: u})
	}
	if p.date != nil {
		s := p.date.Format(isoLayout)
		out.CreatedAt = &s
	}
	return out
}

// messageText renders the message body as plain text, keeping line breaks
// and dropping links' URLs and formatting.
func messageText(sel *goquery.Selection) string {
	sel = sel.Clone()
	sel.Find("br").ReplaceWithHtml("\n")

	lines := strings.Split(sel.Text(), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, strings.Join(strings.Fields(l), " "))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
