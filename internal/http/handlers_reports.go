package http

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"fintrack/internal/core"
)

// handleSpendingByCategory answers a chart-ready per-category breakdown.
// Defaults to the current calendar month and expenses.
func (s *Server) handleSpendingByCategory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, to, err := queryDateRange(q, time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	kind, ok := queryReportKind(q)
	if !ok {
		writeError(w, http.StatusBadRequest, "type must be 'expense' or 'income'")
		return
	}

	key := "spending|" + from.String() + "|" + to.String() + "|" + kind
	report, ok := s.spendingCache.Get(key)
	if !ok {
		report, err = s.repo.SpendingByCategory(r.Context(), from, to, kind)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		s.spendingCache.Set(key, report)
	}

	writeJSON(w, http.StatusOK, toSpendingReportPayload(report))
}

// handleTrend answers the monthly income-vs-expense series. Defaults to
// the trailing twelve months.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := time.Now()

	from, err := queryDate(q, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := queryDate(q, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if from.IsZero() {
		start := core.NewDate(now.Year(), now.Month(), 1)
		from = core.Date{Time: start.AddDate(0, -11, 0)}
	}
	if to.IsZero() {
		to = core.NewDate(now.Year(), now.Month(), 1)
		to = core.Date{Time: to.AddDate(0, 1, -1)}
	}
	if to.Before(from.Time) {
		writeError(w, http.StatusBadRequest, "to must not be before from")
		return
	}

	key := "trend|" + from.String() + "|" + to.String()
	points, ok := s.trendCache.Get(key)
	if !ok {
		points, err = s.repo.MonthlyTrend(r.Context(), from, to)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		s.trendCache.Set(key, points)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"from":   from,
		"to":     to,
		"months": toMonthPointPayloads(points),
	})
}

// queryGroupBy validates the group_by chart parameter.
func queryGroupBy(q url.Values, fallback string) (string, bool) {
	switch groupBy := q.Get("group_by"); groupBy {
	case "":
		return fallback, true
	case "day", "week", "month":
		return groupBy, true
	default:
		return "", false
	}
}

// queryReportKind validates the type chart parameter.
func queryReportKind(q url.Values) (string, bool) {
	switch kind := q.Get("type"); kind {
	case "":
		return "expense", true
	case "expense", "income":
		return kind, true
	default:
		return "", false
	}
}

// periodBuckets enumerates the bucket keys and display labels covering the
// range for one grouping. Week buckets start on the Monday on or before
// from, so the keys line up with the storage layer's bucketing.
func periodBuckets(from, to core.Date, groupBy string) (keys, labels []string) {
	cur := from.Time
	if groupBy == "week" {
		cur = cur.AddDate(0, 0, -((int(cur.Weekday()) + 6) % 7))
	}
	for !cur.After(to.Time) {
		switch groupBy {
		case "week":
			keys = append(keys, cur.Format("2006-01-02"))
			labels = append(labels, "Week of "+cur.Format("Jan 02"))
			cur = cur.AddDate(0, 0, 7)
		case "month":
			keys = append(keys, cur.Format("2006-01"))
			labels = append(labels, cur.Format("Jan 2006"))
			cur = time.Date(cur.Year(), cur.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		default:
			keys = append(keys, cur.Format("2006-01-02"))
			labels = append(labels, cur.Format("Jan 02"))
			cur = cur.AddDate(0, 0, 1)
		}
	}
	return keys, labels
}

// handleSpendingOverTime answers gap-filled income, expense, and net series
// bucketed by day, week, or month, optionally narrowed to one category.
func (s *Server) handleSpendingOverTime(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, to, err := queryDateRange(q, time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	groupBy, ok := queryGroupBy(q, "day")
	if !ok {
		writeError(w, http.StatusBadRequest, "group_by must be 'day', 'week' or 'month'")
		return
	}

	var categoryID *int64
	if raw := q.Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		categoryID = &id
	}

	points, err := s.repo.PeriodTotals(r.Context(), from, to, groupBy, categoryID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	byKey := make(map[string]core.PeriodPoint, len(points))
	for _, p := range points {
		byKey[p.Key] = p
	}

	keys, labels := periodBuckets(from, to, groupBy)
	payload := periodSeriesPayload{
		Start:   from,
		End:     to,
		GroupBy: groupBy,
		Labels:  labels,
		Datasets: periodDatasets{
			IncomeCents:  make([]int64, len(keys)),
			ExpenseCents: make([]int64, len(keys)),
			NetCents:     make([]int64, len(keys)),
		},
	}
	for i, key := range keys {
		p := byKey[key]
		payload.Datasets.IncomeCents[i] = p.Income.Cents
		payload.Datasets.ExpenseCents[i] = p.Expense.Cents
		payload.Datasets.NetCents[i] = p.Income.Cents - p.Expense.Cents
	}
	if payload.Labels == nil {
		payload.Labels = []string{}
	}

	writeJSON(w, http.StatusOK, payload)
}

// handleCategoryTrend answers per-category expense series for stacked area
// charts, one gap-filled dataset per category active in the range.
func (s *Server) handleCategoryTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, to, err := queryDateRange(q, time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	groupBy, ok := queryGroupBy(q, "week")
	if !ok {
		writeError(w, http.StatusBadRequest, "group_by must be 'day', 'week' or 'month'")
		return
	}

	spends, err := s.repo.CategorySpendOverTime(r.Context(), from, to, groupBy)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	keys, labels := periodBuckets(from, to, groupBy)
	keyIndex := make(map[string]int, len(keys))
	for i, key := range keys {
		keyIndex[key] = i
	}

	var (
		datasets      []*categorySeriesPayload
		byCategory    = make(map[int64]*categorySeriesPayload)
		uncategorized *categorySeriesPayload
	)
	for _, spend := range spends {
		i, ok := keyIndex[spend.Key]
		if !ok {
			continue
		}
		if spend.CategoryID == nil {
			if uncategorized == nil {
				uncategorized = &categorySeriesPayload{
					Label:     spend.Name,
					Color:     spend.Color,
					DataCents: make([]int64, len(keys)),
				}
			}
			uncategorized.DataCents[i] += spend.Amount.Cents
			continue
		}
		ds, ok := byCategory[*spend.CategoryID]
		if !ok {
			ds = &categorySeriesPayload{
				CategoryID: spend.CategoryID,
				Label:      spend.Name,
				Color:      spend.Color,
				DataCents:  make([]int64, len(keys)),
			}
			byCategory[*spend.CategoryID] = ds
			datasets = append(datasets, ds)
		}
		ds.DataCents[i] += spend.Amount.Cents
	}
	sort.Slice(datasets, func(i, j int) bool { return datasets[i].Label < datasets[j].Label })
	if uncategorized != nil {
		datasets = append(datasets, uncategorized)
	}
	if datasets == nil {
		datasets = []*categorySeriesPayload{}
	}
	if labels == nil {
		labels = []string{}
	}

	writeJSON(w, http.StatusOK, categoryTrendPayload{
		Start:    from,
		End:      to,
		GroupBy:  groupBy,
		Labels:   labels,
		Datasets: datasets,
	})
}

// handleSpendingHistogram answers the distribution of transaction amounts
// over equal-width bins.
func (s *Server) handleSpendingHistogram(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, to, err := queryDateRange(q, time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind, ok := queryReportKind(q)
	if !ok {
		writeError(w, http.StatusBadRequest, "type must be 'expense' or 'income'")
		return
	}
	bins := queryInt(q, "bins", 10)
	if bins < 1 || bins > 100 {
		writeError(w, http.StatusBadRequest, "bins must be between 1 and 100")
		return
	}

	amounts, err := s.repo.AmountsInRange(r.Context(), from, to, kind)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	payload := histogramPayload{Start: from, End: to, Type: kind, Labels: []string{}, Data: []int{}}
	if len(amounts) == 0 {
		writeJSON(w, http.StatusOK, payload)
		return
	}

	lo, hi := amounts[0], amounts[0]
	var sum int64
	for _, a := range amounts {
		if a < lo {
			lo = a
		}
		if a > hi {
			hi = a
		}
		sum += a
	}

	var (
		edges  []int64
		counts []int
	)
	if lo == hi {
		edges = []int64{lo, hi + 1}
		counts = []int{len(amounts)}
	} else {
		counts = make([]int, bins)
		edges = make([]int64, bins+1)
		span := hi - lo
		for i := range edges {
			edges[i] = lo + span*int64(i)/int64(bins)
		}
		for _, a := range amounts {
			i := int((a - lo) * int64(bins) / span)
			if i >= bins {
				i = bins - 1
			}
			counts[i]++
		}
	}
	for i := 0; i < len(counts); i++ {
		payload.Labels = append(payload.Labels, core.FormatCents(edges[i])+" - "+core.FormatCents(edges[i+1]))
	}

	payload.Data = counts
	payload.Count = len(amounts)
	payload.MinCents, payload.Min = lo, core.FormatCents(lo)
	payload.MaxCents, payload.Max = hi, core.FormatCents(hi)
	payload.AverageCents = sum / int64(len(amounts))
	payload.Average = core.FormatCents(payload.AverageCents)

	writeJSON(w, http.StatusOK, payload)
}

// handleReportSummary answers the overall totals and per-category activity
// for the dashboard's summary cards.
func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryDateRange(r.URL.Query(), time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.repo.RangeSummary(r.Context(), from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRangeSummaryPayload(summary))
}
