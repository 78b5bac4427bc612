// Package markup finds equation elements in an HTML document and replaces
// them with image tags.
//
// An equation element is a span (inline) or div (block) whose class
// attribute carries a recognized variant token, for example
// <span class="eq">x^2</span> or <div class="numeq">E = mc^2</div>.
// Full documents and fragments are both accepted; a fragment is rendered
// back without the html/head/body wrapper the parser would add.
package markup
