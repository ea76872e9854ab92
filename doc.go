/*
Command finder makes finder charts for astronomical targets using Virtual
Observatory services.

Contents

  Program overview
  Command line usage
  Configuration
  Services
  Output


Program overview

For each target name, finder

  resolves the name to J2000 coordinates with the CDS Sesame service,
  retrieves a 0.2 degree Digitized Sky Survey image through the SkyView
  Simple Image Access service,
  queries the 2MASS point source catalog at IRSA for stars within 3 arc
  minutes and brighter than J = 15,
  projects the stars onto the image with the image's world coordinate
  system,
  and draws the log scaled image with open circles on the stars.

Charts are saved as finder-<target>.pdf with white space removed from the
target name, so "HD 189733" becomes finder-HD189733.pdf.

Targets are processed one at a time.  A target with no retrievable image
is skipped with the message

  error retrieving image for <target>!  skipping...

A name that cannot be resolved stops the run, as does a failed catalog
query unless the configuration says to skip such targets.  Charts already
written are kept.

Two related tasks are included.  The targets command writes a target list,
name, RA, and Dec in 20 character columns, sorted by RA.  The colormag
command plots a color-magnitude diagram of a globular cluster from a
VizieR catalog, by default V against V-I for M2 (NGC 7089).


Command line usage

  finder chart [target ...] [-d dir]
  finder targets [target ...] [-o file]
  finder colormag [-o file]

With no targets, the configured list is used.  The default list is

  M2, M45, HD 189733, 3C 273, NGC 1068, AU Mic, TRAPPIST-1

Flags for all commands:

  -c, --config <file>   configuration file
      --cache <file>    SQLite file caching name resolutions
  -v, --verbose         log queries and download details

The targets command writes a spreadsheet when the output file ends in
.xlsx, text otherwise.


Configuration

Every setting has a built in default.  A YAML file named with -c, or
finder.yaml in the working directory if present, overrides any of them.
Unknown keys are an error.  An example with the defaults:

  targets: [M2, M45, HD 189733, 3C 273, NGC 1068, AU Mic, TRAPPIST-1]
  sesame:
    url: https://cds.unistra.fr/cgi-bin/nph-sesame
  image:
    url: https://skyview.gsfc.nasa.gov/cgi-bin/vo/sia.pl?survey=dss&
    size: 0.2          # degrees
  catalog:
    url: https://irsa.ipac.caltech.edu/TAP
    mode: async        # or sync
    table: fp_psc
    ra: ra
    dec: dec
    mag: j_m
    radius: 3          # arc minutes
    mag_limit: 15
    on_failure: abort  # or skip
  chart:
    prefix: finder-
    ext: .pdf          # or .png, .svg, .eps
    width: 6.4         # inches
    height: 4.8
    clamp_min: 1
  target_list:
    output: target_list.txt
  colormag:
    url: https://tapvizier.cds.unistra.fr/TAPVizieR/tap
    mode: sync
    catalog: J/AJ/133/1658/acssggc
    column: Cluster
    value: NGC 7089
    color: V-I
    mag: Vmag
    top: 0             # no row limit
    title: Color Magnitude Diagram for M2
    labels: [V - I, V (mag)]
    output: hw4prob2.pdf
  cache: ""
  http_timeout: 2m


Services

Sesame is queried for XML output from Simbad, then NED, then VizieR.
The first answer is used.

The image service is searched with POS, SIZE, and FORMAT=image/fits
parameters.  The first FITS image of the result is downloaded and decoded.
Images must use a gnomonic (TAN) projection, described with CD, PC and
CDELT, or CDELT and CROTA2 header keywords.

Catalog queries are ADQL submitted to a TAP service, by default as an
asynchronous job which is polled until complete and then deleted.  The
query for a target at RA 56.75, Dec 24.1167 is

  SELECT *
  FROM fp_psc
  WHERE CONTAINS(POINT('ICRS',ra, dec), CIRCLE('ICRS',56.75,24.1167,0.05))=1
  AND j_m<= 15.0


Output

Image pixels are clamped below at 1 and shown by their natural log on a
reversed gray scale, faint white and bright black.  Axes are pixel
coordinates with row 0 of the FITS image at the bottom, so north is up and
east is left for a conventionally oriented survey image.  Stars falling
outside the image are not drawn.
*/
package main
