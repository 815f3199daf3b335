/*
Package markup implements the plain-text content format.

A content file is a list of "key: value" blocks separated by blank lines.
Values may use a small inline syntax: lines starting with "-" become list
items, "h2. Title" lines become headings, bare URLs and e-mail addresses are
linked, and every other line becomes a paragraph. Conversion is an ordered
Pipeline of string-in/string-out stages followed by ExtractFields.
*/
package markup
