// Package analysis implements the price trend screener and the trader resale
// calculator.
//
// The screener compares each item's last two history samples with its
// average over the fetched period and splits items into buy candidates
// (recent minimum price below average) and sell candidates (above average).
// The resale calculator estimates the flea market fee and profit of buying
// an item from a trader and listing it on the flea market.
package analysis
