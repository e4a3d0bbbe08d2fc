package main

import (
	"io"
	"net/url"
	"strconv"

	"sales-service/internal/models"
	"sales-service/internal/service"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	listCompanyID string
	listStoreID   string
	listOrderID   string
	listSkuID     string
	listStartDate string
	listEndDate   string
	listLimit     int
	listOffset    int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored order rows, newest sale first",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listCompanyID, "company", "", "Filter by companyId")
	listCmd.Flags().StringVar(&listStoreID, "store", "", "Filter by storeId")
	listCmd.Flags().StringVar(&listOrderID, "order", "", "Filter by orderId")
	listCmd.Flags().StringVar(&listSkuID, "sku", "", "Filter by skuId")
	listCmd.Flags().StringVar(&listStartDate, "start", "", "Earliest sale date (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listEndDate, "end", "", "Latest sale date (YYYY-MM-DD)")
	listCmd.Flags().IntVar(&listLimit, "limit", models.DefaultListLimit, "Maximum rows (capped at 1000)")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Rows to skip")
}

func runList(cmd *cobra.Command, args []string) error {
	q := url.Values{}
	setIf(q, "companyId", listCompanyID)
	setIf(q, "storeId", listStoreID)
	setIf(q, "orderId", listOrderID)
	setIf(q, "skuId", listSkuID)
	setIf(q, "startdate", listStartDate)
	setIf(q, "enddate", listEndDate)
	q.Set("limit", strconv.Itoa(listLimit))
	q.Set("offset", strconv.Itoa(listOffset))

	filter, err := service.ParseOrderFilter(q)
	if err != nil {
		return err
	}

	svc, cleanup, err := openOrderService()
	if err != nil {
		return err
	}
	defer cleanup()

	rows, err := svc.ListOrders(cmd.Context(), filter)
	if err != nil {
		return err
	}
	return renderOrders(cmd.OutOrStdout(), rows)
}

func renderOrders(w io.Writer, rows []models.OrderRecord) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Company", "Store", "Order", "SKU", "Produced", "Total", "Sale Datetime")
	for _, r := range rows {
		if err := table.Append(
			strconv.FormatInt(r.ID, 10),
			r.CompanyID,
			strconv.FormatInt(r.StoreID, 10),
			strconv.FormatInt(r.OrderID, 10),
			r.SkuID,
			formatFloat(&r.Produced),
			formatFloat(r.Total),
			formatText(r.SaleDatetime),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

func setIf(q url.Values, key, val string) {
	if val != "" {
		q.Set(key, val)
	}
}

func formatFloat(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatText(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
