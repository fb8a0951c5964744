// Package publish runs a full site build: it loads templates, builds the
// content model, renders every page, category and category item into a
// staging directory, copies static assets and finally promotes the staging
// directory over the previous output.
//
// A failed build removes its staging directory and leaves the previous
// output untouched.
package publish
