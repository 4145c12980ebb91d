package festivals

import (
	"fmt"
	"time"

	"github.com/tbourn/retail-chat-dashboard/internal/domain"
)

var festiveNames = map[string]bool{"Diwali": true, "Holi": true, "Ganesh Chaturthi": true}

var giftingNames = map[string]bool{"Valentine's Day": true, "Mother's Day": true}

// Recommend returns the generic stock, discount and marketing suggestions
// for a festival, chosen by category with a few name overrides.
func Recommend(name, category string) domain.Recommendations {
	festive := category == domain.CategoryFestival || festiveNames[name]

	var r domain.Recommendations
	if festive {
		r.StockUpdates = []string{
			"Increase ethnic wear inventory",
			"Stock traditional jewelry",
			"Prepare festive color collections",
		}
	} else {
		r.StockUpdates = []string{
			"Monitor current sales trends",
			"Update inventory based on demand",
			"Prepare seasonal collections",
		}
	}

	switch {
	case festive:
		r.DiscountSuggestions = []string{"20-30% off on ethnic wear", "Buy 2 Get 1 on accessories", "Festive combo deals"}
		r.MarketingTips = []string{"Highlight traditional designs", "Create festive lookbooks", "Partner with local influencers"}
	case category == domain.CategoryCommercial || giftingNames[name]:
		r.DiscountSuggestions = []string{"15-25% off on premium items", "Free gift wrapping", "Couple's discount packages"}
		r.MarketingTips = []string{"Create romantic campaigns", "Offer personalization", "Target gift buyers"}
	case category == domain.CategorySalePeriod:
		r.DiscountSuggestions = []string{"Up to 50% off clearance", "Season launch offers", "Bulk purchase discounts"}
		r.MarketingTips = []string{"Heavy social media promotion", "Email marketing campaigns", "Flash sale announcements"}
	default:
		r.DiscountSuggestions = []string{"10-20% seasonal discounts", "Free shipping offers", "Loyalty rewards"}
		r.MarketingTips = []string{"Respectful themed content", "Community engagement", "Cultural celebration posts"}
	}
	return r
}

// NotificationMessage phrases a festival for a banner.
func NotificationMessage(f domain.Festival) string {
	name := f.Name
	if name == "" {
		name = "Festival"
	}
	switch f.DaysUntil {
	case 0:
		return fmt.Sprintf("🎉 Happy %s! Great day for sales!", name)
	case 1:
		return fmt.Sprintf("🎊 %s is tomorrow! Consider special promotions.", name)
	default:
		return fmt.Sprintf("🎊 %s is in %d days! Consider special promotions.", name, f.DaysUntil)
	}
}

// Season is the merchandising outlook for a month.
type Season struct {
	Name            string   `json:"season"`
	Recommendations []string `json:"recommendations"`
}

var seasons = map[time.Month]Season{
	time.January:   {"Winter", []string{"Focus on warm fabrics and winter collections", "New Year promotion campaigns", "Clearance of previous year stock"}},
	time.February:  {"Late Winter", []string{"Valentine's Day special collections", "Romantic color themes", "Couple's discount packages"}},
	time.March:     {"Spring", []string{"Spring collection launch", "Holi festival preparations", "Bright and vibrant colors"}},
	time.April:     {"Spring", []string{"Summer collection preparation", "Light fabrics and breathable materials", "Easter and spring festivities"}},
	time.May:       {"Late Spring", []string{"Mother's Day promotions", "Summer collection highlights", "Light cotton and linen focus"}},
	time.June:      {"Early Summer", []string{"Father's Day campaigns", "Summer sale preparations", "Monsoon collection preview"}},
	time.July:      {"Monsoon", []string{"Monsoon-appropriate fabrics", "Quick-dry and water-resistant materials", "Raksha Bandhan preparations"}},
	time.August:    {"Monsoon", []string{"Independence Day patriotic themes", "Festival season preparations", "Traditional and ethnic wear"}},
	time.September: {"Post-Monsoon", []string{"Festival season launch", "Navaratri special collections", "Traditional and designer wear"}},
	time.October:   {"Festival Season", []string{"Diwali collection highlights", "Premium and luxury segments", "Gift packaging options"}},
	time.November:  {"Post-Festival", []string{"Wedding season preparations", "Winter collection launch", "Clearance of festival stock"}},
	time.December:  {"Winter/Holiday", []string{"Christmas and year-end promotions", "Holiday party wear", "New Year collection teasers"}},
}

// Seasonal returns the outlook for month.
func Seasonal(month time.Month) Season {
	if s, ok := seasons[month]; ok {
		return s
	}
	return Season{Name: "General", Recommendations: []string{"Monitor sales trends", "Update inventory", "Plan seasonal campaigns"}}
}
