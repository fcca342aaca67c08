// Package books provides the bookkeeping engine of a small business:
// inventory, purchases, sales, expenses, cash and bank registers, loans and
// capital, and the reports derived from them. It is designed to be
// local-first and auditable: every change is a batch of plain JSON records
// committed to a store.Store.
//
// The core functionalities include:
//   - Stock Ledger: the movements of every item (opening, purchase, sale,
//     adjustment), from which available stock and weighted-average cost are
//     derived.
//   - Financial Ledger: the debit/credit entries posted for every purchase,
//     sale and expense, plus the cash, bank, loan and capital registers.
//   - Engine: validates user intents and applies them to both ledgers,
//     atomically.
//   - Reports: stateless functions computing profit and loss, cash flow,
//     inventory valuation, aging, tax and the dashboard indicators.
//   - Snapshots and encrypted backups of the whole books.
//
// This package serves as the foundational logic for the `bks` command-line
// tool.
package books
