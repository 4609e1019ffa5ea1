package statement

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
)

const sbiCSV = `Account Name       :,Mr. TEST USER
Account Number     :,00000012345678901
Start Date         :,1 Jan 2025
End Date           :,31 Jan 2025

Txn Date,Value Date,Description,Ref No./Cheque No.,Debit,Credit,Balance
2 Jan 2025,2 Jan 2025,TO TRANSFER-UPI/DR/500112/SWIGGY/YESB/paytm-swig/Payment,TRANSFER TO 4897,450.00, ,"24,550.00"
3 Jan 2025,3 Jan 2025,BY TRANSFER-NEFT*HDFC0000001*N003*ACME PAYROLL SALARY JAN,TRANSFER FROM 3199, ,"30,000.00","54,550.00"
5 Jan 2025,5 Jan 2025,TO TRANSFER-UPI/DR/500199/UBER INDIA/ICIC/uber@icici,TRANSFER TO 4897,230.00, ,"54,320.00"
7 Jan 2025,7 Jan 2025,BY TRANSFER-UPI/CR/500777/AMAZON REFUND/UTIB,TRANSFER FROM 4897, ,999.00,"55,319.00"
9 Jan 2025,9 Jan 2025,TO TRANSFER-UPI/DR/500888/RAMESH KUMAR/SBIN,TRANSFER TO 4897,"1,200.50", ,"54,118.50"

**This is a computer generated statement and does not require a signature.
`

func TestParseCSV_SBI(t *testing.T) {
	txns, err := ParseCSV([]byte(sbiCSV))
	require.NoError(t, err)
	require.Len(t, txns, 5)

	assert.Equal(t, core.NewDate(2025, 1, 2), txns[0].Date)
	assert.Equal(t, core.Debit, txns[0].Type)
	assert.Equal(t, core.Money{Cents: 45000}, txns[0].Amount)
	assert.Contains(t, txns[0].Description, "SWIGGY")

	assert.Equal(t, core.Credit, txns[1].Type)
	assert.Equal(t, core.Money{Cents: 3000000}, txns[1].Amount)
	assert.Equal(t, core.Money{Cents: 120050}, txns[4].Amount)
}

func TestParseCSV_Simple(t *testing.T) {
	data := "Date,Description,Amount,Type\n2025-01-02,Coffee,-120.50,\n2025-01-03,Salary,50000,CR\n2025-01-04,Zero,0,\n"
	txns, err := ParseCSV([]byte(data))
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, core.Debit, txns[0].Type)
	assert.Equal(t, core.Money{Cents: 12050}, txns[0].Amount)
	assert.Equal(t, core.Credit, txns[1].Type)
}

func TestParseCSV_Errors(t *testing.T) {
	_, err := ParseCSV([]byte("foo,bar\n1,2\n"))
	assert.Error(t, err)

	_, err = ParseCSV([]byte("Date,Description,Amount\n2025-01-02,Coffee,lots\n"))
	assert.Error(t, err)
}

func TestParseStatementLines(t *testing.T) {
	lines := []string{
		"STATE BANK OF INDIA",
		"Txn Date Value Date Description Ref No./Cheque No. Debit Credit Balance",
		"Balance as on 1 Jan 2025 25,000.00",
		"02-01-2025 02-01-2025 UPI/DR/500112/ZOMATO 450.00 24,550.00",
		"03-01-2025   03-01-2025 NEFT ACME PAYROLL   30,000.00 54,550.00",
		"05 Jan 2025 05 Jan 2025 ATM WDL MG ROAD 2,000.00 - 52,550.00",
		"06 Jan 2025 BY TRANSFER INTEREST - 12.00 52,562.00",
		"Page 1 of 3",
	}
	txns := ParseStatementLines(lines)
	require.Len(t, txns, 4)

	assert.Equal(t, core.Debit, txns[0].Type, "first row falls back to keywords")
	assert.Equal(t, core.Money{Cents: 45000}, txns[0].Amount)
	assert.Equal(t, "UPI/DR/500112/ZOMATO", txns[0].Description)

	assert.Equal(t, core.Credit, txns[1].Type, "balance went up")
	assert.Equal(t, core.NewDate(2025, 1, 3), txns[1].Date)

	assert.Equal(t, core.Debit, txns[2].Type)
	assert.Equal(t, core.Money{Cents: 200000}, txns[2].Amount)

	assert.Equal(t, core.Credit, txns[3].Type)
	assert.Equal(t, core.Money{Cents: 1200}, txns[3].Amount)
}

func TestParsePDF_Garbage(t *testing.T) {
	_, err := ParsePDF([]byte("%PDF-1.4 not really"))
	assert.Error(t, err)
}

func TestCheckFile(t *testing.T) {
	assert.NoError(t, CheckFile("jan.CSV", 10, 0))
	assert.NoError(t, CheckFile("jan.pdf", DefaultMaxBytes, DefaultMaxBytes))

	err := CheckFile("jan.xlsx", 10, 0)
	require.ErrorIs(t, err, core.ErrValidation)
	assert.Contains(t, err.Error(), "Only CSV and PDF files are supported")

	err = CheckFile("jan.pdf", DefaultMaxBytes+1, DefaultMaxBytes)
	require.ErrorIs(t, err, core.ErrValidation)
	assert.Contains(t, err.Error(), "File size must be under 5MB")
}

func TestParser_Parse(t *testing.T) {
	p := NewParser()
	res, err := p.Parse(context.Background(), []byte(sbiCSV), "statement.csv")
	require.NoError(t, err)

	assert.Equal(t, Summary{Total: 5, Debits: 3, Credits: 2}, res.Summary)
	cats := make([]string, len(res.Transactions))
	for i, txn := range res.Transactions {
		cats[i] = txn.Category
		assert.NotNil(t, txn.Tags)
	}
	assert.Equal(t, []string{"Food & Dining", "Salary", "Transport", "Refunds", core.Uncategorized}, cats)
	assert.Equal(t, []string{"Food & Dining", "Salary", "Transport", "Refunds"}, res.AvailableCategories)
}

func TestParser_FillsBlankDescriptions(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
		want []string
	}{
		{
			name: "simple csv",
			file: "blank.csv",
			data: "Date,Description,Amount,Type\n2025-01-02,,-120.50,\n2025-01-03,   ,500,CR\n2025-01-04,Coffee,-80,\n",
			want: []string{"Bank debit", "Bank credit", "Coffee"},
		},
		{
			name: "sbi csv",
			file: "sbi.csv",
			data: "Txn Date,Value Date,Description,Ref No./Cheque No.,Debit,Credit,Balance\n2 Jan 2025,2 Jan 2025, ,REF1,450.00, ,\"24,550.00\"\n",
			want: []string{"Bank debit"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewParser().Parse(context.Background(), []byte(tt.data), tt.file)
			require.NoError(t, err)
			got := make([]string, len(res.Transactions))
			for i, txn := range res.Transactions {
				got[i] = txn.Description
				assert.NoError(t, txn.ToExpenseInput().Validate())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParser_RejectsBeforeParsing(t *testing.T) {
	p := NewParser(WithMaxBytes(10))
	_, err := p.Parse(context.Background(), []byte(sbiCSV), "statement.csv")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = NewParser().Parse(context.Background(), []byte("Date,Description,Amount\n"), "empty.csv")
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "No transactions found in the file", ve.Message)
}

func TestCleanDescription(t *testing.T) {
	long := strings.Repeat("é", 250)
	assert.Len(t, []rune(cleanDescription(long)), core.MaxDescriptionLen)
	assert.Equal(t, "a b", cleanDescription("  a \t b "))
}

func TestCategorizer(t *testing.T) {
	c := DefaultCategorizer()
	assert.Equal(t, "Salary", c.Categorize("NEFT ACME SALARY", core.Credit))
	assert.Equal(t, core.Uncategorized, c.Categorize("NEFT ACME SALARY", core.Debit))
	assert.Equal(t, "Shopping", c.Categorize("upi/amazon pay", core.Debit))

	custom := NewCategorizer(Rule{Category: "Rent", Keywords: []string{"landlord"}})
	assert.Equal(t, "Rent", custom.Categorize("IMPS TO LANDLORD", core.Debit))
}
