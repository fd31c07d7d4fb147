package ingest

import (
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/david/tender-tracker/internal/models"
)

var (
	tenderIDRegex   = regexp.MustCompile(`(UA-\d{4}-\d{2}-\d{2}-\d{6}-\w)`)
	tenderHashRegex = regexp.MustCompile(`([a-f0-9]{32})`)
	classifierRegex = regexp.MustCompile(`ДК 021:2015:([\d-]+):\s*([^:]+)`)
	edrpouRegex     = regexp.MustCompile(`#(\d+)`)
)

// Page labels (Ukrainian) used to locate values on a tender detail page.
const (
	labelName            = "Найменування"
	labelEDRPOU          = "ЄДРПОУ"
	labelCustomerAddress = "Місцезнаходження"
	labelContact         = "Контактна особа"
	labelCategory        = "Категорія"
	labelProcurement     = "Закупівля"
	labelSubjectType     = "Вид предмету закупівлі:"
	labelClassifier      = "Класифікатор"
	labelDeliveryPlace   = "Місце поставки товарів або місце виконання робіт чи надання послуг:"
	labelDeliveryTerm    = "Строк поставки товарів, виконання робіт чи надання послуг:"
	labelPublished       = "Дата оприлюднення"
)

var errSectionMissing = errors.New("section not found")

// ExtractTender parses a single tender detail page. Sections that fail are
// left empty and reported in the returned error list; extraction never aborts.
func ExtractTender(r io.Reader) (models.Tender, []error) {
	var t models.Tender

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return t, []error{&FieldExtractionError{Section: "document", Err: err}}
	}

	var errs []error
	sections := []struct {
		name string
		fn   func(*goquery.Document, *models.Tender) error
	}{
		{"basic", extractBasic},
		{"customer", extractCustomer},
		{"subject", extractSubject},
		{"awards", extractAwards},
		{"dates", extractDates},
		{"documents", extractDocuments},
		{"location", extractLocation},
		{"normalize", func(_ *goquery.Document, t *models.Tender) error {
			normalizeTender(t)
			return nil
		}},
	}

	for _, s := range sections {
		if err := runSection(s.name, func() error { return s.fn(doc, &t) }); err != nil {
			log.Printf("[Extractor] %v", err)
			errs = append(errs, err)
		}
	}

	return t, errs
}

func runSection(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &FieldExtractionError{Section: name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if e := fn(); e != nil {
		return &FieldExtractionError{Section: name, Err: e}
	}
	return nil
}

func extractBasic(doc *goquery.Document, t *models.Tender) error {
	title := doc.Find(".tender--head--title").First()
	inf := doc.Find(".tender--head--inf").First()
	if title.Length() == 0 && inf.Length() == 0 {
		return fmt.Errorf("tender header: %w", errSectionMissing)
	}

	if title.Length() > 0 {
		t.Title = cleanText(title.Text())
	}

	if inf.Length() > 0 {
		text := inf.Text()
		if m := tenderIDRegex.FindStringSubmatch(text); len(m) == 2 {
			t.TenderID = m[1]
		}
		if m := tenderHashRegex.FindStringSubmatch(text); len(m) == 2 {
			t.TenderHash = m[1]
		}
		if status := inf.Find(".marked").First(); status.Length() > 0 {
			t.Status = cleanText(status.Text())
		}
		for _, line := range textLines(inf) {
			if strings.Contains(line, labelProcurement) {
				t.ProcurementType = line
				break
			}
		}
	}

	if cost := doc.Find(".tender--description--cost--number").First(); cost.Length() > 0 {
		if amount, currency, ok := parseCost(cost.Text()); ok {
			t.ExpectedCost = &models.Money{Amount: &amount, Currency: currency}
		}
	}

	return nil
}

func extractCustomer(doc *goquery.Document, t *models.Tender) error {
	section := doc.Find(".tender--customer--inner").First()
	if section.Length() == 0 {
		return nil
	}

	c := models.Customer{}
	if cell := labeledCell(section, labelName); cell != nil {
		c.Name = cleanText(cell.Text())
	}
	if cell := labeledCell(section, labelEDRPOU); cell != nil {
		c.EDRPOU = cleanText(cell.Text())
	}
	if cell := labeledCell(section, labelCustomerAddress); cell != nil {
		c.Location = cleanText(cell.Text())
		c.Region = customerRegion(c.Location)
	}
	if cell := labeledCell(section, labelContact); cell != nil {
		lines := textLines(cell)
		if len(lines) >= 1 {
			c.ContactName = lines[0]
		}
		if len(lines) >= 2 {
			c.ContactPhone = lines[1]
		}
		if len(lines) >= 3 {
			c.ContactEmail = lines[2]
		}
	}
	if cell := labeledCell(section, labelCategory); cell != nil {
		c.Category = cleanText(cell.Text())
	}

	if !c.IsEmpty() {
		t.Customer = &c
	}
	return nil
}

// labeledCell returns the value cell of the first table row whose text
// contains label.
func labeledCell(section *goquery.Selection, label string) *goquery.Selection {
	var cell *goquery.Selection
	section.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if !strings.Contains(row.Text(), label) {
			return true
		}
		cells := row.Find("td")
		if cells.Length() > 1 {
			cell = cells.Eq(1)
			return false
		}
		return true
	})
	return cell
}

func extractSubject(doc *goquery.Document, t *models.Tender) error {
	section := doc.Find(".col-sm-9 .margin-bottom.margin-bottom-more").First()
	if section.Length() == 0 {
		return nil
	}

	s := models.Subject{}
	if text, ok := labeledText(section, "p", labelSubjectType); ok {
		s.Type = valueAfter(text, labelSubjectType)
	}
	if text, ok := labeledText(section, "p", labelClassifier); ok {
		if m := classifierRegex.FindStringSubmatch(text); len(m) == 3 {
			s.ClassifierCode = m[1]
			s.ClassifierName = strings.TrimSpace(m[2])
		}
	}
	if text, ok := labeledText(section, "div", labelDeliveryPlace); ok {
		s.DeliveryPlace = valueAfter(text, labelDeliveryPlace)
	}
	if text, ok := labeledText(section, "div", labelDeliveryTerm); ok {
		s.DeliveryDeadline = valueAfter(text, labelDeliveryTerm)
	}
	if desc := section.Find(".tender--description--text.description").First(); desc.Length() > 0 {
		s.Description = cleanText(desc.Text())
	}
	if qty := section.Find(".col-md-4 .padding.margin-bottom").First(); qty.Length() > 0 {
		s.Quantity = cleanText(qty.Text())
	}

	if s != (models.Subject{}) {
		t.Subject = &s
	}
	return nil
}

// labeledText finds the innermost element of the given tag containing label
// and returns its normalized text.
func labeledText(section *goquery.Selection, tag, label string) (string, bool) {
	matches := section.Find(tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(normalizeSpace(s.Text()), label)
	})
	if matches.Length() == 0 {
		return "", false
	}
	return cleanText(matches.Last().Text()), true
}

func valueAfter(text, label string) string {
	idx := strings.Index(text, label)
	if idx == -1 {
		return ""
	}
	return strings.TrimSpace(text[idx+len(label):])
}

func extractAwards(doc *goquery.Document, t *models.Tender) error {
	table := doc.Find(".table.table-striped").First()
	if table.Length() == 0 {
		return nil
	}

	var awards []models.Award
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		a := models.Award{}
		participant := textLines(cells.Eq(0))
		if len(participant) >= 1 {
			a.ParticipantName = participant[0]
		}
		if len(participant) >= 2 {
			if m := edrpouRegex.FindStringSubmatch(participant[1]); len(m) == 2 {
				a.ParticipantEDRPOU = m[1]
			}
		}

		a.Decision = cleanText(cells.Eq(1).Text())

		bid := textLines(cells.Eq(2))
		if len(bid) >= 1 {
			if amount, ok := parseAmount(bid[0]); ok {
				a.BidAmount = &amount
			}
		}
		if len(bid) >= 2 {
			a.BidCurrency = parseCurrency(bid[1])
		}

		a.PublicationDate = strings.Join(textLines(cells.Eq(3)), "")
		awards = append(awards, a)
	})

	t.Awards = awards
	return nil
}

func extractDates(doc *goquery.Document, t *models.Tender) error {
	holders := doc.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), labelPublished) && s.Find(".date").Length() > 0
	})
	if holders.Length() == 0 {
		return nil
	}

	date := holders.Last().Find(".date").First()
	if text := cleanText(date.Text()); text != "" {
		t.Dates = &models.TenderDates{PublicationDate: text}
	}
	return nil
}

func extractDocuments(doc *goquery.Document, t *models.Tender) error {
	var docs []models.Document
	doc.Find(".documents-tabs .tender--customer").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() < 2 {
				return
			}

			d := models.Document{}
			if date := cells.Eq(0).Find(".date").First(); date.Length() > 0 {
				d.Date = cleanText(date.Text())
			}
			if link := cells.Eq(1).Find("a").First(); link.Length() > 0 {
				d.Title = cleanText(link.Text())
				d.URL, _ = link.Attr("href")
			}
			docs = append(docs, d)
		})
	})

	t.Documents = docs
	return nil
}

func extractLocation(_ *goquery.Document, t *models.Tender) error {
	if t.Subject == nil || t.Subject.DeliveryPlace == "" {
		return nil
	}
	t.Location = locationFromDeliveryPlace(t.Subject.DeliveryPlace)
	return nil
}

// textLines returns the trimmed, non-empty text nodes under sel in document
// order, so values separated by <br> or nested tags come out as lines.
func textLines(sel *goquery.Selection) []string {
	var lines []string
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				if text := normalizeSpace(c.Text()); text != "" {
					lines = append(lines, text)
				}
				return
			}
			walk(c)
		})
	}
	walk(sel)
	return lines
}
